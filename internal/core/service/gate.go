package service

import (
	"github.com/sweetshop/inventory-system/internal/core/domain"
	"github.com/sweetshop/inventory-system/internal/core/ports"
)

// Gate authorizes inbound requests: it verifies the session token and then
// checks the role the operation requires.
type Gate struct {
	verifier ports.TokenVerifier
}

func NewGate(verifier ports.TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// Check returns the verified claims when token grants at least required.
func (g *Gate) Check(token string, required domain.Role) (*domain.Claims, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}
	claims, err := g.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(claims, required); err != nil {
		return nil, err
	}
	return claims, nil
}

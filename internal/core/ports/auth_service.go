package ports

import (
	"context"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

// RegisterInput carries the self-service signup fields. There is deliberately
// no role: every self-registered account is a plain user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

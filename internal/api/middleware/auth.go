package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

const claimsKey = "claims"

// Authorizer verifies a bearer token and checks it grants the required role.
type Authorizer interface {
	Check(token string, required domain.Role) (*domain.Claims, error)
}

// Auth rejects requests whose bearer token does not grant at least required,
// and injects the verified claims into the echo context.
func Auth(authz Authorizer, required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrMissingToken
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				return domain.ErrInvalidToken
			}

			claims, err := authz.Check(strings.TrimSpace(token), required)
			if err != nil {
				return err
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims injected by Auth, or nil on public routes.
func ClaimsFrom(c echo.Context) *domain.Claims {
	claims, _ := c.Get(claimsKey).(*domain.Claims)
	return claims
}

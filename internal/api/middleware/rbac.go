package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-system/internal/core/domain"
)

// RequireRole narrows a group already guarded by Auth to callers holding at
// least required. Missing claims count as unauthenticated.
func RequireRole(required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := domain.Authorize(ClaimsFrom(c), required); err != nil {
				return err
			}
			return next(c)
		}
	}
}

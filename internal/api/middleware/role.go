package middleware

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// RoleChecker reports whether a stored identity currently holds a role.
type RoleChecker interface {
	HasRole(ctx context.Context, email, role string) (bool, error)
}

// RequireRole must run after Auth. It reads the caller's role from the store
// on every request, so a role change applies to the next call even though the
// credential is unchanged.
func RequireRole(checker RoleChecker, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email := Email(c)
			if email == "" {
				return fmt.Errorf("%w: missing authentication", domain.ErrUnauthorized)
			}

			ok, err := checker.HasRole(c.Request().Context(), email, role)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s role required", domain.ErrForbidden, role)
			}
			return next(c)
		}
	}
}

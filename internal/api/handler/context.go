package handler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/api/middleware"
	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// bindAndValidate decodes the request into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	return c.Validate(req)
}

// pathEmail returns the :email path parameter, unescaped and lowercased.
func pathEmail(c echo.Context) string {
	raw := c.Param("email")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// requireSelf returns the caller's email when it matches the :email path
// parameter. Callers may only read and change their own enrollment data.
func requireSelf(c echo.Context) (string, error) {
	email := middleware.Email(c)
	if email == "" {
		return "", fmt.Errorf("%w: missing authentication", domain.ErrUnauthorized)
	}
	if pathEmail(c) != email {
		return "", fmt.Errorf("%w: identity mismatch", domain.ErrForbidden)
	}
	return email, nil
}

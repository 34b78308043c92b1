package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// emailKey is the echo.Context key holding the authenticated email.
const emailKey = "email"

// Auth validates the bearer credential and stores its email claim in the
// request context. It never touches the store.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return fmt.Errorf("%w: missing authorization header", domain.ErrUnauthorized)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthorized)
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
			}

			email, _ := claims["email"].(string)
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return fmt.Errorf("%w: token carries no identity", domain.ErrUnauthorized)
			}

			c.Set(emailKey, email)
			return next(c)
		}
	}
}

// Email returns the identity attached by Auth, or "" when Auth did not run.
func Email(c echo.Context) string {
	email, _ := c.Get(emailKey).(string)
	return email
}

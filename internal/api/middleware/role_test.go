package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

type stubRoles struct {
	roles map[string]string
	err   error
	calls int
}

func (s *stubRoles) HasRole(_ context.Context, email, role string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	r, ok := s.roles[email]
	return ok && r == role, nil
}

func TestRequireRole(t *testing.T) {
	checker := &stubRoles{roles: map[string]string{
		"admin@b.com":   domain.RoleAdmin,
		"student@b.com": domain.RoleStudent,
	}}

	cases := []struct {
		name    string
		email   string
		wantErr error
	}{
		{"admin allowed", "admin@b.com", nil},
		{"student forbidden", "student@b.com", domain.ErrForbidden},
		{"unknown user forbidden", "ghost@b.com", domain.ErrForbidden},
		{"unauthenticated", "", domain.ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tc.email != "" {
				c.Set(emailKey, tc.email)
			}

			called := false
			err := RequireRole(checker, domain.RoleAdmin)(func(echo.Context) error {
				called = true
				return nil
			})(c)

			if tc.wantErr == nil {
				if err != nil || !called {
					t.Fatalf("expected pass-through, got err=%v called=%v", err, called)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if called {
				t.Fatal("next must not run")
			}
		})
	}
}

func TestRequireRole_StoreFailure(t *testing.T) {
	checker := &stubRoles{err: domain.ErrUpstream}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(emailKey, "admin@b.com")

	err := RequireRole(checker, domain.RoleAdmin)(mustNotRun(t))(c)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

// An unauthenticated caller is rejected by Auth before the role gate runs.
func TestGateChain_UnauthenticatedNeverReachesRoleLookup(t *testing.T) {
	checker := &stubRoles{roles: map[string]string{"admin@b.com": domain.RoleAdmin}}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	chain := Auth("secret")(RequireRole(checker, domain.RoleAdmin)(mustNotRun(t)))
	if err := chain(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if checker.calls != 0 {
		t.Fatalf("role lookup ran %d times", checker.calls)
	}
}

func TestGateChain_AdminPasses(t *testing.T) {
	checker := &stubRoles{roles: map[string]string{"admin@b.com": domain.RoleAdmin}}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{
		"email": "admin@b.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}))
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	chain := Auth("secret")(RequireRole(checker, domain.RoleAdmin)(func(echo.Context) error {
		called = true
		return nil
	}))
	if err := chain(c); err != nil || !called {
		t.Fatalf("expected admin to pass, got err=%v called=%v", err, called)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

const defaultTokenTTL = time.Hour

// IdentityService implements registration, credential issuance and role
// management.
type IdentityService struct {
	users     ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewIdentityService(users ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &IdentityService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log, now: time.Now}
}

// Register stores a new identity. Re-registering an existing email is a no-op
// that returns the stored user with created=false.
func (s *IdentityService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, bool, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	user := &domain.User{
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		PhotoURL:  in.PhotoURL,
		Role:      domain.RoleStudent,
		CreatedAt: s.now().UTC(),
	}

	created, err := s.users.Create(ctx, user)
	if errors.Is(err, domain.ErrUserExists) {
		// Lost a race with a concurrent registration of the same email.
		existing, findErr := s.users.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.log.Info().Str("email", email).Msg("user registered")
	return created, true, nil
}

// IssueCredential signs a short-lived token asserting email. Nothing is
// persisted, so tokens cannot be revoked before they expire.
func (s *IdentityService) IssueCredential(_ context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.MapClaims{
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// HasRole reports whether the stored user has role. A missing user has no role.
func (s *IdentityService) HasRole(ctx context.Context, email, role string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.EffectiveRole() == role, nil
}

func (s *IdentityService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx, "")
}

func (s *IdentityService) ListInstructors(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx, domain.RoleInstructor)
}

// SetRole changes a user's role. The change is visible to the next gated
// request because role gates always re-read the store.
func (s *IdentityService) SetRole(ctx context.Context, email, role string) error {
	if !domain.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if err := s.users.SetRole(ctx, email, role); err != nil {
		return err
	}
	s.log.Info().Str("email", email).Str("role", role).Msg("role changed")
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}
	return email, nil
}

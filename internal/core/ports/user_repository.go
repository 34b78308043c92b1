package ports

import (
	"context"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// UserRepository persists identities and their selection/enrollment sets.
// All list mutations are single-document atomic operations.
type UserRepository interface {
	// Create inserts a user. A duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns users, optionally restricted to one role ("" = all).
	List(ctx context.Context, role string) ([]*domain.User, error)
	SetRole(ctx context.Context, email, role string) error

	// AddSelection appends classID to the selection only if it is in neither
	// set. It reports false when that guard did not match (missing user,
	// already selected, or already enrolled).
	AddSelection(ctx context.Context, email, classID string) (bool, error)
	// RemoveSelection pulls classID from the selection. Absent ids are a no-op;
	// a missing user yields domain.ErrUserNotFound.
	RemoveSelection(ctx context.Context, email, classID string) error
	// Enroll moves classID from the selection into the enrolled set in one
	// update, creating the enrolled set when absent.
	Enroll(ctx context.Context, email, classID string) error
}

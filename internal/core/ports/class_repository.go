package ports

import (
	"context"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// ClassFilter narrows a class listing.
type ClassFilter struct {
	Status          domain.ClassStatus // empty = any
	InstructorEmail string             // empty = any
	ByPopularity    bool               // sort by enrolled_students desc instead of created_at desc
	Limit           int                // 0 = no limit
}

// ClassUpdate carries the instructor-editable fields of a class.
type ClassUpdate struct {
	Name     string
	Price    float64
	Seats    int
	ImageURL string
}

// ClassRepository persists classes.
type ClassRepository interface {
	Create(ctx context.Context, class *domain.Class) (*domain.Class, error)
	FindByID(ctx context.Context, id string) (*domain.Class, error)
	// FindByIDs resolves ids, silently skipping ids that no longer exist.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Class, error)
	List(ctx context.Context, filter ClassFilter) ([]*domain.Class, error)
	Update(ctx context.Context, id string, update ClassUpdate) (*domain.Class, error)
	SetStatus(ctx context.Context, id string, status domain.ClassStatus) error
	SetFeedback(ctx context.Context, id, feedback string) error

	// ReserveSeat decrements seats and increments enrolled_students in one
	// conditional update guarded by seats > 0. It reports false when the guard
	// did not match.
	ReserveSeat(ctx context.Context, id string) (bool, error)
}

package ports

import (
	"context"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// RegisterInput carries the profile captured at sign-up.
type RegisterInput struct {
	Email    string
	Name     string
	PhotoURL string
}

// IdentityService covers registration, credentials and role management.
type IdentityService interface {
	// Register is idempotent on email; created is false when the user existed.
	Register(ctx context.Context, input RegisterInput) (user *domain.User, created bool, err error)
	IssueCredential(ctx context.Context, email string) (string, error)
	HasRole(ctx context.Context, email, role string) (bool, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListInstructors(ctx context.Context) ([]*domain.User, error)
	SetRole(ctx context.Context, email, role string) error
}

// CreateClassInput is what an instructor submits for a new class.
type CreateClassInput struct {
	InstructorEmail string
	Name            string
	Price           float64
	Seats           int
	ImageURL        string
}

// ClassService covers class CRUD and moderation.
type ClassService interface {
	Create(ctx context.Context, input CreateClassInput) (*domain.Class, error)
	Update(ctx context.Context, instructorEmail, id string, update ClassUpdate) (*domain.Class, error)
	Get(ctx context.Context, id string) (*domain.Class, error)
	ListApproved(ctx context.Context) ([]*domain.Class, error)
	ListPopular(ctx context.Context) ([]*domain.Class, error)
	ListByInstructor(ctx context.Context, email string) ([]*domain.Class, error)
	ListAll(ctx context.Context, status domain.ClassStatus) ([]*domain.Class, error)
	SetStatus(ctx context.Context, id string, status domain.ClassStatus) error
	SetFeedback(ctx context.Context, id, feedback string) error
}

// ConfirmPaymentInput describes a completed charge. An empty TransactionID
// marks a test payment that enrolls without consuming a seat.
type ConfirmPaymentInput struct {
	Email         string
	ClassID       string
	Price         float64
	TransactionID string
}

// EnrollmentService drives the Unselected → Selected → Enrolled lifecycle.
type EnrollmentService interface {
	Select(ctx context.Context, email, classID string) error
	Deselect(ctx context.Context, email, classID string) error
	ListSelected(ctx context.Context, email string) ([]*domain.Class, error)
	ListEnrolled(ctx context.Context, email string) ([]*domain.Class, error)
	CreatePaymentIntent(ctx context.Context, price float64) (string, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*domain.Payment, error)
	PaymentHistory(ctx context.Context, email string) ([]*domain.Payment, error)
}

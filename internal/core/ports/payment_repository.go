package ports

import (
	"context"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

// PaymentRepository is the append-only payment audit trail.
type PaymentRepository interface {
	// Insert records a payment. A repeated transaction id yields
	// domain.ErrDuplicatePayment.
	Insert(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	// ListByEmail returns a user's payments, newest first.
	ListByEmail(ctx context.Context, email string) ([]*domain.Payment, error)
	// FlagForReconciliation marks a recorded payment whose enrollment could not
	// be applied.
	FlagForReconciliation(ctx context.Context, id, reason string) error
}

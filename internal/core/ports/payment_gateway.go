package ports

import "context"

// PaymentGateway is the boundary to the external payment processor.
type PaymentGateway interface {
	// CreateIntent opens a payment intent for price and returns the client
	// secret the browser uses to complete the charge.
	CreateIntent(ctx context.Context, price float64) (string, error)
}

// ReceiptGuard rejects replays of the same processor transaction id before
// anything is written.
type ReceiptGuard interface {
	// Claim reports true the first time transactionID is seen.
	Claim(ctx context.Context, transactionID string) (bool, error)
	// Release forgets a claim whose payment was never recorded, so the client
	// may retry.
	Release(ctx context.Context, transactionID string) error
}

package domain

import "time"

// PaymentStatus marks whether a recorded payment was fully applied.
type PaymentStatus string

const (
	PaymentCompleted              PaymentStatus = "completed"
	PaymentReconciliationRequired PaymentStatus = "reconciliation_required"
)

// Payment is the audit record written for every confirmed payment.
// TransactionID is empty for test payments, which do not consume a seat.
type Payment struct {
	ID                   string        `json:"id"`
	Email                string        `json:"email"`
	ClassID              string        `json:"class_id"`
	ClassName            string        `json:"class_name,omitempty"`
	Price                float64       `json:"price"`
	TransactionID        string        `json:"transaction_id,omitempty"`
	Status               PaymentStatus `json:"status"`
	ReconciliationReason string        `json:"reconciliation_reason,omitempty"`
	Date                 time.Time     `json:"date"`
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrClassNotFound = errors.New("class not found")

	ErrAlreadySelected   = errors.New("already selected")
	ErrAlreadyEnrolled   = errors.New("already enrolled")
	ErrNoSeats           = errors.New("no seats available")
	ErrDuplicatePayment  = errors.New("payment already recorded")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrClassNotApproved  = errors.New("class is not open for enrollment")

	// ErrUpstream wraps transport or processing failures of the store or the
	// payment processor.
	ErrUpstream = errors.New("upstream failure")

	// ErrReconciliationRequired means a payment was recorded but the enrollment
	// it pays for could not be applied.
	ErrReconciliationRequired = errors.New("payment recorded but enrollment incomplete; manual reconciliation required")
)

// ReconciliationError reports a recorded payment whose enrollment could not
// be applied. It matches ErrReconciliationRequired and unwraps to the cause
// of the failed step.
type ReconciliationError struct {
	PaymentID string
	Step      string
	Err       error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s: payment %s (%s): %v", ErrReconciliationRequired, e.PaymentID, e.Step, e.Err)
}

func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliationRequired
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

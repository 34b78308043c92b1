package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lenslegacy/class-booking/internal/pkg/metrics"
	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

// selectAttempts bounds how often Select re-reads the user after its guarded
// append lost a race with a concurrent update.
const selectAttempts = 3

// EnrollmentService moves a (user, class) pair through
// Unselected → Selected → Enrolled. Every mutation is a single-document atomic
// store operation; the service keeps no state of its own.
type EnrollmentService struct {
	users    ports.UserRepository
	classes  ports.ClassRepository
	payments ports.PaymentRepository
	gateway  ports.PaymentGateway
	receipts ports.ReceiptGuard
	log      zerolog.Logger
	now      func() time.Time
}

// NewEnrollmentService wires the enrollment flow. receipts may be nil, in which
// case replayed transaction ids are caught only by the payments unique index.
func NewEnrollmentService(
	users ports.UserRepository,
	classes ports.ClassRepository,
	payments ports.PaymentRepository,
	gateway ports.PaymentGateway,
	receipts ports.ReceiptGuard,
	log zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		users:    users,
		classes:  classes,
		payments: payments,
		gateway:  gateway,
		receipts: receipts,
		log:      log,
		now:      time.Now,
	}
}

// Select adds classID to the user's selection.
func (s *EnrollmentService) Select(ctx context.Context, email, classID string) error {
	if err := requireIDs(email, classID); err != nil {
		return err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return err
	}
	if class.Status != domain.ClassApproved {
		return domain.ErrClassNotApproved
	}

	for attempt := 0; attempt < selectAttempts; attempt++ {
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if err := selectionConflict(user, classID); err != nil {
			return err
		}

		applied, err := s.users.AddSelection(ctx, email, classID)
		if err != nil {
			return err
		}
		if applied {
			metrics.SelectionsTotal.WithLabelValues("selected").Inc()
			s.log.Debug().Str("email", email).Str("class_id", classID).Msg("class selected")
			return nil
		}
		// The guard saw a different document than we just read; classify again.
	}

	metrics.SelectionsTotal.WithLabelValues("already_selected").Inc()
	return fmt.Errorf("%w: selection changed concurrently", domain.ErrAlreadySelected)
}

// selectionConflict reports why classID cannot be selected by user, if at all.
func selectionConflict(user *domain.User, classID string) error {
	switch {
	case user.HasEnrolled(classID):
		metrics.SelectionsTotal.WithLabelValues("already_enrolled").Inc()
		return domain.ErrAlreadyEnrolled
	case user.HasSelected(classID):
		metrics.SelectionsTotal.WithLabelValues("already_selected").Inc()
		return domain.ErrAlreadySelected
	}
	return nil
}

// Deselect removes classID from the selection. Removing an absent id succeeds.
func (s *EnrollmentService) Deselect(ctx context.Context, email, classID string) error {
	if err := requireIDs(email, classID); err != nil {
		return err
	}
	return s.users.RemoveSelection(ctx, email, classID)
}

// ListSelected resolves the user's selection to class documents.
func (s *EnrollmentService) ListSelected(ctx context.Context, email string) ([]*domain.Class, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, user.SelectedClasses)
}

// ListEnrolled resolves the user's enrollments to class documents.
func (s *EnrollmentService) ListEnrolled(ctx context.Context, email string) ([]*domain.Class, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, user.EnrolledClasses)
}

func (s *EnrollmentService) resolve(ctx context.Context, ids []string) ([]*domain.Class, error) {
	if len(ids) == 0 {
		return []*domain.Class{}, nil
	}
	classes, err := s.classes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []*domain.Class{}
	}
	return classes, nil
}

// CreatePaymentIntent asks the processor for a client secret covering price.
func (s *EnrollmentService) CreatePaymentIntent(ctx context.Context, price float64) (string, error) {
	if price <= 0 {
		return "", fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}

	start := s.now()
	secret, err := s.gateway.CreateIntent(ctx, price)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.PaymentIntentDuration.WithLabelValues(outcome).Observe(s.now().Sub(start).Seconds())

	if err != nil {
		s.log.Error().Err(err).Float64("price", price).Msg("payment intent failed")
		return "", err
	}
	return secret, nil
}

// ConfirmPayment records a payment and applies the enrollment it pays for.
//
// A payment carrying a transaction id was already charged by the processor,
// so it is recorded before any enrollment rule is checked and is never rolled
// back. If the enrollment cannot be applied afterwards, the payment is flagged
// reconciliation_required and the returned error says why. A payment without a
// transaction id charged nothing and is rejected up front instead.
func (s *EnrollmentService) ConfirmPayment(ctx context.Context, in ports.ConfirmPaymentInput) (*domain.Payment, error) {
	if err := requireIDs(in.Email, in.ClassID); err != nil {
		return nil, err
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	paid := in.TransactionID != ""

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, in.ClassID)
	if err != nil {
		return nil, err
	}

	if !paid {
		if err := enrollmentConflict(user, class); err != nil {
			return nil, err
		}
	} else if err := s.claimReceipt(ctx, in.TransactionID); err != nil {
		return nil, err
	}

	// 1. Audit trail. Nothing else happens unless this succeeds.
	recorded, err := s.payments.Insert(ctx, &domain.Payment{
		Email:         in.Email,
		ClassID:       in.ClassID,
		ClassName:     class.Name,
		Price:         in.Price,
		TransactionID: in.TransactionID,
		Status:        domain.PaymentCompleted,
		Date:          s.now().UTC(),
	})
	if err != nil {
		if paid && !errors.Is(err, domain.ErrDuplicatePayment) {
			s.releaseReceipt(ctx, in.TransactionID)
		}
		return nil, fmt.Errorf("record payment: %w", err)
	}
	metrics.PaymentsRecordedTotal.Inc()

	if paid {
		if err := enrollmentConflict(user, class); err != nil {
			return nil, s.flagForReconciliation(ctx, recorded, conflictStep(err), err)
		}

		// 2. Seat, guarded by seats > 0 so concurrent buyers cannot overdraw it.
		reserved, err := s.classes.ReserveSeat(ctx, in.ClassID)
		if err != nil {
			return nil, s.flagForReconciliation(ctx, recorded, "seat", err)
		}
		if !reserved {
			metrics.SeatConflictsTotal.Inc()
			return nil, s.flagForReconciliation(ctx, recorded, "seat", domain.ErrNoSeats)
		}
	}

	// 3. Selected → Enrolled in one user update.
	if err := s.users.Enroll(ctx, in.Email, in.ClassID); err != nil {
		return nil, s.flagForReconciliation(ctx, recorded, "enroll", err)
	}

	kind := "test"
	if paid {
		kind = "paid"
	}
	metrics.EnrollmentsTotal.WithLabelValues(kind).Inc()
	s.log.Info().
		Str("email", in.Email).
		Str("class_id", in.ClassID).
		Str("payment_id", recorded.ID).
		Str("transaction_id", in.TransactionID).
		Msg("enrollment confirmed")

	return recorded, nil
}

// enrollmentConflict reports why user cannot be enrolled in class, if at all.
func enrollmentConflict(user *domain.User, class *domain.Class) error {
	switch {
	case user.HasEnrolled(class.ID):
		return domain.ErrAlreadyEnrolled
	case class.Status != domain.ClassApproved:
		return domain.ErrClassNotApproved
	}
	return nil
}

func conflictStep(err error) string {
	if errors.Is(err, domain.ErrAlreadyEnrolled) {
		return "already_enrolled"
	}
	return "class_status"
}

// PaymentHistory lists the user's payments, newest first.
func (s *EnrollmentService) PaymentHistory(ctx context.Context, email string) ([]*domain.Payment, error) {
	payments, err := s.payments.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	return payments, nil
}

func (s *EnrollmentService) claimReceipt(ctx context.Context, transactionID string) error {
	if s.receipts == nil {
		return nil
	}
	first, err := s.receipts.Claim(ctx, transactionID)
	if err != nil {
		s.log.Warn().Err(err).Str("transaction_id", transactionID).Msg("receipt guard unavailable, relying on payment index")
		return nil
	}
	if !first {
		return domain.ErrDuplicatePayment
	}
	return nil
}

func (s *EnrollmentService) releaseReceipt(ctx context.Context, transactionID string) {
	if s.receipts == nil {
		return
	}
	if err := s.receipts.Release(ctx, transactionID); err != nil {
		s.log.Warn().Err(err).Str("transaction_id", transactionID).Msg("failed to release receipt claim")
	}
}

// flagForReconciliation marks p and builds the error returned to the caller.
// An enrollment conflict keeps its own kind so the client still sees why;
// any other cause is reported as reconciliation required.
func (s *EnrollmentService) flagForReconciliation(ctx context.Context, p *domain.Payment, step string, cause error) error {
	metrics.PaymentReconciliationsTotal.WithLabelValues(step).Inc()

	reason := fmt.Sprintf("%s: %v", step, cause)
	if err := s.payments.FlagForReconciliation(ctx, p.ID, reason); err != nil {
		s.log.Error().Err(err).Str("payment_id", p.ID).Msg("failed to flag payment for reconciliation")
	}

	s.log.Error().
		Err(cause).
		Str("payment_id", p.ID).
		Str("email", p.Email).
		Str("class_id", p.ClassID).
		Str("step", step).
		Msg("payment recorded without enrollment")

	for _, conflict := range []error{domain.ErrNoSeats, domain.ErrAlreadyEnrolled, domain.ErrClassNotApproved} {
		if errors.Is(cause, conflict) {
			return fmt.Errorf("%w: payment %s flagged for refund", conflict, p.ID)
		}
	}
	return &domain.ReconciliationError{PaymentID: p.ID, Step: step, Err: cause}
}

func requireIDs(email, classID string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(classID) == "" {
		return fmt.Errorf("%w: class id is required", domain.ErrInvalidInput)
	}
	return nil
}

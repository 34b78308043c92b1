package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

type stubIdentityService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, bool, error)
	issueFn    func(ctx context.Context, email string) (string, error)
	hasRoleFn  func(ctx context.Context, email, role string) (bool, error)
	setRoleFn  func(ctx context.Context, email, role string) error
	users      []*domain.User
}

func (s *stubIdentityService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, bool, error) {
	return s.registerFn(ctx, in)
}

func (s *stubIdentityService) IssueCredential(ctx context.Context, email string) (string, error) {
	return s.issueFn(ctx, email)
}

func (s *stubIdentityService) HasRole(ctx context.Context, email, role string) (bool, error) {
	return s.hasRoleFn(ctx, email, role)
}

func (s *stubIdentityService) ListUsers(context.Context) ([]*domain.User, error) {
	return s.users, nil
}

func (s *stubIdentityService) ListInstructors(context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range s.users {
		if u.Role == domain.RoleInstructor {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubIdentityService) SetRole(ctx context.Context, email, role string) error {
	return s.setRoleFn(ctx, email, role)
}

type stubEnrollmentService struct {
	selectFn   func(ctx context.Context, email, classID string) error
	deselectFn func(ctx context.Context, email, classID string) error
	intentFn   func(ctx context.Context, price float64) (string, error)
	confirmFn  func(ctx context.Context, in ports.ConfirmPaymentInput) (*domain.Payment, error)
	selected   []*domain.Class
	payments   []*domain.Payment
}

func (s *stubEnrollmentService) Select(ctx context.Context, email, classID string) error {
	return s.selectFn(ctx, email, classID)
}

func (s *stubEnrollmentService) Deselect(ctx context.Context, email, classID string) error {
	return s.deselectFn(ctx, email, classID)
}

func (s *stubEnrollmentService) ListSelected(context.Context, string) ([]*domain.Class, error) {
	return s.selected, nil
}

func (s *stubEnrollmentService) ListEnrolled(context.Context, string) ([]*domain.Class, error) {
	return []*domain.Class{}, nil
}

func (s *stubEnrollmentService) CreatePaymentIntent(ctx context.Context, price float64) (string, error) {
	return s.intentFn(ctx, price)
}

func (s *stubEnrollmentService) ConfirmPayment(ctx context.Context, in ports.ConfirmPaymentInput) (*domain.Payment, error) {
	return s.confirmFn(ctx, in)
}

func (s *stubEnrollmentService) PaymentHistory(context.Context, string) ([]*domain.Payment, error) {
	return s.payments, nil
}

type stubClassService struct {
	createFn    func(ctx context.Context, in ports.CreateClassInput) (*domain.Class, error)
	updateFn    func(ctx context.Context, instructorEmail, id string, u ports.ClassUpdate) (*domain.Class, error)
	setStatusFn func(ctx context.Context, id string, status domain.ClassStatus) error
	classes     []*domain.Class
}

func (s *stubClassService) Create(ctx context.Context, in ports.CreateClassInput) (*domain.Class, error) {
	return s.createFn(ctx, in)
}

func (s *stubClassService) Update(ctx context.Context, instructorEmail, id string, u ports.ClassUpdate) (*domain.Class, error) {
	return s.updateFn(ctx, instructorEmail, id, u)
}

func (s *stubClassService) Get(_ context.Context, id string) (*domain.Class, error) {
	for _, c := range s.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrClassNotFound
}

func (s *stubClassService) ListApproved(context.Context) ([]*domain.Class, error) {
	return s.classes, nil
}

func (s *stubClassService) ListPopular(context.Context) ([]*domain.Class, error) {
	return s.classes, nil
}

func (s *stubClassService) ListByInstructor(context.Context, string) ([]*domain.Class, error) {
	return s.classes, nil
}

func (s *stubClassService) ListAll(context.Context, domain.ClassStatus) ([]*domain.Class, error) {
	return s.classes, nil
}

func (s *stubClassService) SetStatus(ctx context.Context, id string, status domain.ClassStatus) error {
	return s.setStatusFn(ctx, id, status)
}

func (s *stubClassService) SetFeedback(context.Context, string, string) error {
	return nil
}

// newContext builds an echo context for a JSON request. A non-empty caller is
// stored the way the Auth middleware stores it.
func newContext(method, target, body, caller string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != "" {
		c.Set("email", caller)
	}
	return c, rec
}

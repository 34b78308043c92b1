package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lenslegacy/class-booking/internal/pkg/metrics"
	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

const popularClassLimit = 6

type ClassService struct {
	classes ports.ClassRepository
	users   ports.UserRepository
	log     zerolog.Logger
	now     func() time.Time
}

func NewClassService(classes ports.ClassRepository, users ports.UserRepository, log zerolog.Logger) *ClassService {
	return &ClassService{classes: classes, users: users, log: log, now: time.Now}
}

// Create stores a new class in pending status, owned by the instructor.
func (s *ClassService) Create(ctx context.Context, in ports.CreateClassInput) (*domain.Class, error) {
	if err := validateClassFields(in.Name, in.Price, in.Seats); err != nil {
		return nil, err
	}

	instructor, err := s.users.FindByEmail(ctx, in.InstructorEmail)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	class := &domain.Class{
		Name:            strings.TrimSpace(in.Name),
		Price:           in.Price,
		Seats:           in.Seats,
		ImageURL:        in.ImageURL,
		Status:          domain.ClassPending,
		InstructorEmail: instructor.Email,
		InstructorName:  instructor.Name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.classes.Create(ctx, class)
	if err != nil {
		s.log.Error().Err(err).Str("instructor", in.InstructorEmail).Msg("failed to create class")
		return nil, err
	}

	metrics.ClassesCreatedTotal.Inc()
	s.log.Info().Str("class_id", created.ID).Str("instructor", created.InstructorEmail).Msg("class created")
	return created, nil
}

// Update edits name, price, seats and image. Only the owning instructor may
// edit a class.
func (s *ClassService) Update(ctx context.Context, instructorEmail, id string, u ports.ClassUpdate) (*domain.Class, error) {
	if err := validateClassFields(u.Name, u.Price, u.Seats); err != nil {
		return nil, err
	}

	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(class.InstructorEmail, instructorEmail) {
		return nil, domain.ErrForbidden
	}

	u.Name = strings.TrimSpace(u.Name)
	return s.classes.Update(ctx, id, u)
}

func (s *ClassService) Get(ctx context.Context, id string) (*domain.Class, error) {
	return s.classes.FindByID(ctx, id)
}

func (s *ClassService) ListApproved(ctx context.Context) ([]*domain.Class, error) {
	return s.classes.List(ctx, ports.ClassFilter{Status: domain.ClassApproved})
}

// ListPopular returns the approved classes with the most enrolled students.
func (s *ClassService) ListPopular(ctx context.Context) ([]*domain.Class, error) {
	return s.classes.List(ctx, ports.ClassFilter{
		Status:       domain.ClassApproved,
		ByPopularity: true,
		Limit:        popularClassLimit,
	})
}

func (s *ClassService) ListByInstructor(ctx context.Context, email string) ([]*domain.Class, error) {
	return s.classes.List(ctx, ports.ClassFilter{InstructorEmail: email})
}

// ListAll is the admin view; an empty status lists every class.
func (s *ClassService) ListAll(ctx context.Context, status domain.ClassStatus) ([]*domain.Class, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.classes.List(ctx, ports.ClassFilter{Status: status})
}

// SetStatus moves a class through moderation.
func (s *ClassService) SetStatus(ctx context.Context, id string, status domain.ClassStatus) error {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !class.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, class.Status, status)
	}
	if err := s.classes.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Info().Str("class_id", id).Str("status", string(status)).Msg("class status changed")
	return nil
}

// SetFeedback attaches or replaces the admin's feedback on a class.
func (s *ClassService) SetFeedback(ctx context.Context, id, feedback string) error {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return fmt.Errorf("%w: feedback is required", domain.ErrInvalidInput)
	}
	return s.classes.SetFeedback(ctx, id, feedback)
}

func validateClassFields(name string, price float64, seats int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	case seats < 0:
		return fmt.Errorf("%w: seats must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

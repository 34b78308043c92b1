package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	findErr   error // if set, FindByEmail returns this error
	enrollErr error // if set, Enroll returns this error
	// addGuardMisses makes the next N AddSelection calls report a lost race.
	addGuardMisses int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.SelectedClasses = slices.Clone(u.SelectedClasses)
	clone.EnrolledClasses = slices.Clone(u.EnrolledClasses)
	return &clone
}

func (r *stubUserRepo) seed(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.Email] = cloneUser(u)
}

func (r *stubUserRepo) get(email string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[u.Email]; exists {
		return nil, domain.ErrUserExists
	}
	clone := cloneUser(u)
	clone.ID = "id-" + u.Email
	r.users[u.Email] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) List(_ context.Context, role string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *stubUserRepo) SetRole(_ context.Context, email, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

// AddSelection mirrors the guarded $addToSet of the Mongo repository.
func (r *stubUserRepo) AddSelection(_ context.Context, email, classID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addGuardMisses > 0 {
		r.addGuardMisses--
		return false, nil
	}
	u, ok := r.users[email]
	if !ok || u.HasSelected(classID) || u.HasEnrolled(classID) {
		return false, nil
	}
	u.SelectedClasses = append(u.SelectedClasses, classID)
	return true, nil
}

func (r *stubUserRepo) RemoveSelection(_ context.Context, email, classID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.SelectedClasses = slices.DeleteFunc(u.SelectedClasses, func(id string) bool { return id == classID })
	return nil
}

func (r *stubUserRepo) Enroll(_ context.Context, email, classID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enrollErr != nil {
		return r.enrollErr
	}
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.SelectedClasses = slices.DeleteFunc(u.SelectedClasses, func(id string) bool { return id == classID })
	if !u.HasEnrolled(classID) {
		u.EnrolledClasses = append(u.EnrolledClasses, classID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory class repository
// ---------------------------------------------------------------------------

type stubClassRepo struct {
	mu      sync.Mutex
	classes map[string]*domain.Class
	nextID  int

	lastFilter ports.ClassFilter
	reserveErr error
}

func newStubClassRepo() *stubClassRepo {
	return &stubClassRepo{classes: make(map[string]*domain.Class)}
}

func (r *stubClassRepo) seed(c *domain.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.classes[c.ID] = &clone
}

func (r *stubClassRepo) get(id string) *domain.Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return nil
	}
	clone := *c
	return &clone
}

func (r *stubClassRepo) Create(_ context.Context, c *domain.Class) (*domain.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *c
	clone.ID = fmt.Sprintf("class-%d", r.nextID)
	r.classes[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubClassRepo) FindByID(_ context.Context, id string) (*domain.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return nil, domain.ErrClassNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubClassRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Class
	for _, id := range ids {
		if c, ok := r.classes[id]; ok {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubClassRepo) List(_ context.Context, f ports.ClassFilter) ([]*domain.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f
	var out []*domain.Class
	for _, c := range r.classes {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.InstructorEmail != "" && c.InstructorEmail != f.InstructorEmail {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.ByPopularity {
			return out[i].EnrolledStudents > out[j].EnrolledStudents
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *stubClassRepo) Update(_ context.Context, id string, u ports.ClassUpdate) (*domain.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return nil, domain.ErrClassNotFound
	}
	c.Name, c.Price, c.Seats, c.ImageURL = u.Name, u.Price, u.Seats, u.ImageURL
	clone := *c
	return &clone, nil
}

func (r *stubClassRepo) SetStatus(_ context.Context, id string, status domain.ClassStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return domain.ErrClassNotFound
	}
	c.Status = status
	return nil
}

func (r *stubClassRepo) SetFeedback(_ context.Context, id, feedback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return domain.ErrClassNotFound
	}
	c.Feedback = feedback
	return nil
}

// ReserveSeat mirrors the {seats: {$gt: 0}} guarded $inc.
func (r *stubClassRepo) ReserveSeat(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reserveErr != nil {
		return false, r.reserveErr
	}
	c, ok := r.classes[id]
	if !ok || c.Seats <= 0 {
		return false, nil
	}
	c.Seats--
	c.EnrolledStudents++
	return true, nil
}

// ---------------------------------------------------------------------------
// In-memory payment repository
// ---------------------------------------------------------------------------

type stubPaymentRepo struct {
	mu       sync.Mutex
	payments []*domain.Payment

	insertErr error
}

func (r *stubPaymentRepo) Insert(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	if p.TransactionID != "" {
		for _, existing := range r.payments {
			if existing.TransactionID == p.TransactionID {
				return nil, domain.ErrDuplicatePayment
			}
		}
	}
	clone := *p
	clone.ID = fmt.Sprintf("pay-%d", len(r.payments)+1)
	r.payments = append(r.payments, &clone)
	out := clone
	return &out, nil
}

func (r *stubPaymentRepo) ListByEmail(_ context.Context, email string) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payment
	for _, p := range r.payments {
		if p.Email == email {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *stubPaymentRepo) FlagForReconciliation(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			p.Status = domain.PaymentReconciliationRequired
			p.ReconciliationReason = reason
			return nil
		}
	}
	return fmt.Errorf("payment %s not found", id)
}

func (r *stubPaymentRepo) all() []*domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Payment, len(r.payments))
	for i, p := range r.payments {
		clone := *p
		out[i] = &clone
	}
	return out
}

// ---------------------------------------------------------------------------
// Gateway and receipt guard
// ---------------------------------------------------------------------------

type stubGateway struct {
	secret string
	err    error
	prices []float64
}

func (g *stubGateway) CreateIntent(_ context.Context, price float64) (string, error) {
	g.prices = append(g.prices, price)
	return g.secret, g.err
}

type stubReceipts struct {
	mu       sync.Mutex
	claimed  map[string]bool
	claimErr error
	released []string
}

func newStubReceipts() *stubReceipts {
	return &stubReceipts{claimed: make(map[string]bool)}
}

func (g *stubReceipts) Claim(_ context.Context, txn string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimErr != nil {
		return false, g.claimErr
	}
	if g.claimed[txn] {
		return false, nil
	}
	g.claimed[txn] = true
	return true, nil
}

func (g *stubReceipts) Release(_ context.Context, txn string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, txn)
	g.released = append(g.released, txn)
	return nil
}

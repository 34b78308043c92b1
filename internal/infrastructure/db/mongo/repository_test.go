package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: n},
		bson.E{Key: "nModified", Value: n},
	)
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error",
	})
}

// nextUpdate returns the query and update documents of the single statement
// carried by the next recorded update command.
func nextUpdate(t *testing.T, mt *mtest.T) (bson.Raw, bson.Raw) {
	t.Helper()
	evt := mt.GetStartedEvent()
	if evt == nil || evt.CommandName != "update" {
		t.Fatalf("expected an update command, got %+v", evt)
	}
	updates, ok := evt.Command.Lookup("updates").ArrayOK()
	if !ok {
		t.Fatalf("update command without statements: %s", evt.Command)
	}
	stmt, ok := updates.Lookup("0").DocumentOK()
	if !ok {
		t.Fatalf("missing first update statement: %s", updates)
	}
	return stmt.Lookup("q").Document(), stmt.Lookup("u").Document()
}

func wantString(t *testing.T, doc bson.Raw, want string, path ...string) {
	t.Helper()
	if got, ok := doc.Lookup(path...).StringValueOK(); !ok || got != want {
		t.Errorf("%v: expected %q in %s", path, want, doc)
	}
}

func wantInt(t *testing.T, doc bson.Raw, want int64, path ...string) {
	t.Helper()
	if got, ok := doc.Lookup(path...).AsInt64OK(); !ok || got != want {
		t.Errorf("%v: expected %d in %s", path, want, doc)
	}
}

func TestUserRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("create maps duplicate key to ErrUserExists", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(duplicateKey())

		_, err := repo.Create(context.Background(), &domain.User{Email: "a@b.com"})
		if !errors.Is(err, domain.ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("find by email decodes lists", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "booking.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "email", Value: "a@b.com"},
			{Key: "role", Value: "instructor"},
			{Key: "selected_classes", Value: bson.A{"c1"}},
		}))

		u, err := repo.FindByEmail(context.Background(), "a@b.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.ID != oid.Hex() || u.Role != "instructor" {
			t.Errorf("unexpected user %+v", u)
		}
		if len(u.SelectedClasses) != 1 || u.EnrolledClasses == nil {
			t.Errorf("expected one selection and an empty enrolled list, got %v / %v", u.SelectedClasses, u.EnrolledClasses)
		}
	})

	mt.Run("find by email not found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "booking.users", mtest.FirstBatch))

		_, err := repo.FindByEmail(context.Background(), "ghost@b.com")
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("add selection reports guard outcome", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(1), updated(0))

		ok, err := repo.AddSelection(context.Background(), "a@b.com", "c1")
		if err != nil || !ok {
			t.Fatalf("expected applied, got %v %v", ok, err)
		}
		ok, err = repo.AddSelection(context.Background(), "a@b.com", "c1")
		if err != nil || ok {
			t.Fatalf("expected guard miss, got %v %v", ok, err)
		}
	})

	mt.Run("add selection is guarded against selected and enrolled ids", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(1))
		mt.ClearEvents()

		if _, err := repo.AddSelection(context.Background(), "a@b.com", "c1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		q, u := nextUpdate(t, mt)
		wantString(t, q, "a@b.com", "email")
		wantString(t, q, "c1", "selected_classes", "$ne")
		wantString(t, q, "c1", "enrolled_classes", "$ne")
		wantString(t, u, "c1", "$addToSet", "selected_classes")
	})

	mt.Run("enroll moves the id in one update", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(1))
		mt.ClearEvents()

		if err := repo.Enroll(context.Background(), "a@b.com", "c1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		q, u := nextUpdate(t, mt)
		wantString(t, q, "a@b.com", "email")
		wantString(t, u, "c1", "$pull", "selected_classes")
		wantString(t, u, "c1", "$addToSet", "enrolled_classes")
	})

	mt.Run("enroll unknown user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(updated(0))

		if err := repo.Enroll(context.Background(), "ghost@b.com", "c1"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("driver failure is upstream", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "boom",
			Name:    "BadValue",
		}))

		err := repo.SetRole(context.Background(), "a@b.com", "admin")
		if !errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
	})
}

func TestClassRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		repo := NewClassRepository(mt.DB)

		if _, err := repo.FindByID(context.Background(), "not-hex"); !errors.Is(err, domain.ErrClassNotFound) {
			t.Fatalf("expected ErrClassNotFound, got %v", err)
		}
	})

	mt.Run("reserve seat", func(mt *mtest.T) {
		repo := NewClassRepository(mt.DB)
		id := primitive.NewObjectID().Hex()
		mt.AddMockResponses(updated(1), updated(0))

		ok, err := repo.ReserveSeat(context.Background(), id)
		if err != nil || !ok {
			t.Fatalf("expected reservation, got %v %v", ok, err)
		}
		ok, err = repo.ReserveSeat(context.Background(), id)
		if err != nil || ok {
			t.Fatalf("expected seat floor to hold, got %v %v", ok, err)
		}
	})

	mt.Run("reserve seat is guarded by the seat floor", func(mt *mtest.T) {
		repo := NewClassRepository(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(updated(1))
		mt.ClearEvents()

		if _, err := repo.ReserveSeat(context.Background(), oid.Hex()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		q, u := nextUpdate(t, mt)
		if got, ok := q.Lookup("_id").ObjectIDOK(); !ok || got != oid {
			t.Errorf("expected _id %s in %s", oid.Hex(), q)
		}
		wantInt(t, q, 0, "seats", "$gt")
		wantInt(t, u, -1, "$inc", "seats")
		wantInt(t, u, 1, "$inc", "enrolled_students")
	})

	mt.Run("list decodes classes", func(mt *mtest.T) {
		repo := NewClassRepository(mt.DB)
		now := time.Now().UTC().Truncate(time.Millisecond)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "booking.classes", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Portraits"},
				{Key: "price", Value: 49.5},
				{Key: "seats", Value: 3},
				{Key: "status", Value: "approved"},
				{Key: "enrolled_students", Value: 7},
				{Key: "created_at", Value: now},
			},
		))

		classes, err := repo.List(context.Background(), ports.ClassFilter{
			Status:       domain.ClassApproved,
			ByPopularity: true,
			Limit:        6,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(classes) != 1 {
			t.Fatalf("expected 1 class, got %d", len(classes))
		}
		c := classes[0]
		if c.Name != "Portraits" || c.Seats != 3 || c.EnrolledStudents != 7 || c.Status != domain.ClassApproved {
			t.Errorf("unexpected class %+v", c)
		}
	})

	mt.Run("set status on missing class", func(mt *mtest.T) {
		repo := NewClassRepository(mt.DB)
		mt.AddMockResponses(updated(0))

		err := repo.SetStatus(context.Background(), primitive.NewObjectID().Hex(), domain.ClassApproved)
		if !errors.Is(err, domain.ErrClassNotFound) {
			t.Fatalf("expected ErrClassNotFound, got %v", err)
		}
	})

	mt.Run("find by ids skips malformed ids", func(mt *mtest.T) {
		repo := NewClassRepository(mt.DB)

		classes, err := repo.FindByIDs(context.Background(), []string{"bad"})
		if err != nil || len(classes) != 0 {
			t.Fatalf("expected empty result, got %v %v", classes, err)
		}
	})
}

func TestPaymentRepository(t *testing.T) {
	mt := newMock(t)

	mt.Run("duplicate transaction id", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(duplicateKey())

		_, err := repo.Insert(context.Background(), &domain.Payment{
			Email:         "a@b.com",
			ClassID:       "c1",
			TransactionID: "pi_1",
			Status:        domain.PaymentCompleted,
		})
		if !errors.Is(err, domain.ErrDuplicatePayment) {
			t.Fatalf("expected ErrDuplicatePayment, got %v", err)
		}
	})

	mt.Run("insert returns id", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p, err := repo.Insert(context.Background(), &domain.Payment{
			Email:   "a@b.com",
			ClassID: "c1",
			Price:   20,
			Status:  domain.PaymentCompleted,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ID == "" || p.Price != 20 {
			t.Errorf("unexpected payment %+v", p)
		}
	})

	mt.Run("list by email", func(mt *mtest.T) {
		repo := NewPaymentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "booking.payments", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "email", Value: "a@b.com"},
				{Key: "class_id", Value: "c2"},
				{Key: "status", Value: "reconciliation_required"},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "email", Value: "a@b.com"},
				{Key: "class_id", Value: "c1"},
				{Key: "status", Value: "completed"},
			},
		))

		payments, err := repo.ListByEmail(context.Background(), "a@b.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(payments) != 2 || payments[0].Status != domain.PaymentReconciliationRequired {
			t.Fatalf("unexpected payments %+v", payments)
		}
	})
}

package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

const collectionPayments = "payments"

// PaymentRepository implements ports.PaymentRepository on the payments
// collection. Records are never deleted.
type PaymentRepository struct {
	coll *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{coll: db.Collection(collectionPayments)}
}

type mongoPayment struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	Email                string             `bson:"email"`
	ClassID              string             `bson:"class_id"`
	ClassName            string             `bson:"class_name,omitempty"`
	Price                float64            `bson:"price"`
	TransactionID        string             `bson:"transaction_id,omitempty"`
	Status               string             `bson:"status"`
	ReconciliationReason string             `bson:"reconciliation_reason,omitempty"`
	Date                 time.Time          `bson:"date"`
}

func (mp mongoPayment) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:                   mp.ID.Hex(),
		Email:                mp.Email,
		ClassID:              mp.ClassID,
		ClassName:            mp.ClassName,
		Price:                mp.Price,
		TransactionID:        mp.TransactionID,
		Status:               domain.PaymentStatus(mp.Status),
		ReconciliationReason: mp.ReconciliationReason,
		Date:                 mp.Date,
	}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoPayment{
		Email:         p.Email,
		ClassID:       p.ClassID,
		ClassName:     p.ClassName,
		Price:         p.Price,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		Date:          p.Date,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicatePayment
		}
		return nil, upstream("insert payment", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, upstream("list payments", err)
	}

	var docs []mongoPayment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, upstream("decode payments", err)
	}

	payments := make([]*domain.Payment, 0, len(docs))
	for _, d := range docs {
		payments = append(payments, d.toDomain())
	}
	return payments, nil
}

func (r *PaymentRepository) FlagForReconciliation(ctx context.Context, id, reason string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return upstream("flag payment", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":                string(domain.PaymentReconciliationRequired),
		"reconciliation_reason": reason,
	}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return upstream("flag payment", err)
	}
	return nil
}

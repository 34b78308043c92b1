package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lenslegacy/class-booking/internal/core/domain"
	"github.com/lenslegacy/class-booking/internal/core/ports"
)

const collectionClasses = "classes"

// ClassRepository implements ports.ClassRepository on the classes collection.
type ClassRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewClassRepository(db *mongo.Database) *ClassRepository {
	return &ClassRepository{coll: db.Collection(collectionClasses), now: time.Now}
}

type mongoClass struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Price            float64            `bson:"price"`
	Seats            int                `bson:"seats"`
	ImageURL         string             `bson:"image_url,omitempty"`
	Status           string             `bson:"status"`
	EnrolledStudents int                `bson:"enrolled_students"`
	Feedback         string             `bson:"feedback,omitempty"`
	InstructorEmail  string             `bson:"instructor_email"`
	InstructorName   string             `bson:"instructor_name,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (mc mongoClass) toDomain() *domain.Class {
	return &domain.Class{
		ID:               mc.ID.Hex(),
		Name:             mc.Name,
		Price:            mc.Price,
		Seats:            mc.Seats,
		ImageURL:         mc.ImageURL,
		Status:           domain.ClassStatus(mc.Status),
		EnrolledStudents: mc.EnrolledStudents,
		Feedback:         mc.Feedback,
		InstructorEmail:  mc.InstructorEmail,
		InstructorName:   mc.InstructorName,
		CreatedAt:        mc.CreatedAt,
		UpdatedAt:        mc.UpdatedAt,
	}
}

func (r *ClassRepository) Create(ctx context.Context, class *domain.Class) (*domain.Class, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoClass{
		Name:             class.Name,
		Price:            class.Price,
		Seats:            class.Seats,
		ImageURL:         class.ImageURL,
		Status:           string(class.Status),
		EnrolledStudents: class.EnrolledStudents,
		InstructorEmail:  class.InstructorEmail,
		InstructorName:   class.InstructorName,
		CreatedAt:        class.CreatedAt,
		UpdatedAt:        class.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, upstream("insert class", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

// FindByID returns domain.ErrClassNotFound for unknown and malformed ids alike.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*domain.Class, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrClassNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoClass
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClassNotFound
		}
		return nil, upstream("find class", err)
	}
	return mc.toDomain(), nil
}

func (r *ClassRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Class, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*domain.Class{}, nil
	}
	return r.find(ctx, "find classes", bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

func (r *ClassRepository) List(ctx context.Context, f ports.ClassFilter) ([]*domain.Class, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.InstructorEmail != "" {
		filter["instructor_email"] = f.InstructorEmail
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.ByPopularity {
		opts.SetSort(bson.D{{Key: "enrolled_students", Value: -1}, {Key: "created_at", Value: -1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return r.find(ctx, "list classes", filter, opts)
}

func (r *ClassRepository) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]*domain.Class, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, upstream(op, err)
	}

	var docs []mongoClass
	if err := cur.All(ctx, &docs); err != nil {
		return nil, upstream(op, err)
	}

	classes := make([]*domain.Class, 0, len(docs))
	for _, d := range docs {
		classes = append(classes, d.toDomain())
	}
	return classes, nil
}

func (r *ClassRepository) Update(ctx context.Context, id string, u ports.ClassUpdate) (*domain.Class, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrClassNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":       u.Name,
		"price":      u.Price,
		"seats":      u.Seats,
		"image_url":  u.ImageURL,
		"updated_at": r.now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mc mongoClass
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClassNotFound
		}
		return nil, upstream("update class", err)
	}
	return mc.toDomain(), nil
}

func (r *ClassRepository) SetStatus(ctx context.Context, id string, status domain.ClassStatus) error {
	return r.updateByID(ctx, "set class status", id, bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": r.now().UTC(),
	}})
}

func (r *ClassRepository) SetFeedback(ctx context.Context, id, feedback string) error {
	return r.updateByID(ctx, "set class feedback", id, bson.M{"$set": bson.M{
		"feedback":   feedback,
		"updated_at": r.now().UTC(),
	}})
}

// ReserveSeat takes one seat with a single conditional $inc. The seats > 0
// guard keeps the counter from going negative under concurrent purchases.
func (r *ClassRepository) ReserveSeat(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "seats": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"seats": -1, "enrolled_students": 1}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, upstream("reserve seat", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *ClassRepository) updateByID(ctx context.Context, op, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrClassNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return upstream(op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

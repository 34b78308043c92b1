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
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository on the users collection.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Email           string             `bson:"email"`
	Name            string             `bson:"name,omitempty"`
	PhotoURL        string             `bson:"photo_url,omitempty"`
	Role            string             `bson:"role,omitempty"`
	SelectedClasses []string           `bson:"selected_classes,omitempty"`
	EnrolledClasses []string           `bson:"enrolled_classes,omitempty"`
	CreatedAt       time.Time          `bson:"created_at"`
}

func (mu mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:              mu.ID.Hex(),
		Email:           mu.Email,
		Name:            mu.Name,
		PhotoURL:        mu.PhotoURL,
		Role:            mu.Role,
		SelectedClasses: nonNil(mu.SelectedClasses),
		EnrolledClasses: nonNil(mu.EnrolledClasses),
		CreatedAt:       mu.CreatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Email:     user.Email,
		Name:      user.Name,
		PhotoURL:  user.PhotoURL,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, upstream("insert user", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, upstream("find user", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, role string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, upstream("list users", err)
	}

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, upstream("decode users", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *UserRepository) SetRole(ctx context.Context, email, role string) error {
	return r.updateByEmail(ctx, "set role", email, bson.M{"$set": bson.M{"role": role}})
}

// AddSelection appends classID with $addToSet, guarded so that an id already
// selected or enrolled never matches.
func (r *UserRepository) AddSelection(ctx context.Context, email, classID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"email":            email,
		"selected_classes": bson.M{"$ne": classID},
		"enrolled_classes": bson.M{"$ne": classID},
	}
	update := bson.M{"$addToSet": bson.M{"selected_classes": classID}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, upstream("add selection", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *UserRepository) RemoveSelection(ctx context.Context, email, classID string) error {
	return r.updateByEmail(ctx, "remove selection", email, bson.M{
		"$pull": bson.M{"selected_classes": classID},
	})
}

// Enroll pulls classID from the selection and adds it to the enrolled set in
// one update. $addToSet creates enrolled_classes when it does not exist yet.
func (r *UserRepository) Enroll(ctx context.Context, email, classID string) error {
	return r.updateByEmail(ctx, "enroll", email, bson.M{
		"$pull":     bson.M{"selected_classes": classID},
		"$addToSet": bson.M{"enrolled_classes": classID},
	})
}

func (r *UserRepository) updateByEmail(ctx context.Context, op, email string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return upstream(op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

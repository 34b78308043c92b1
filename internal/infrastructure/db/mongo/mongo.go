package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lenslegacy/class-booking/internal/core/domain"
)

const (
	defaultTimeout  = 10 * time.Second
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. The ping is retried with
// exponential backoff so the API can start alongside a database that is still
// booting. The caller owns the client and must Disconnect it on shutdown.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes the repositories rely on for correctness:
// unique emails and unique processor transaction ids.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}
	if _, err := db.Collection(collectionUsers).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	classes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "enrolled_students", Value: -1}}},
		{Keys: bson.D{{Key: "instructor_email", Value: 1}}},
	}
	if _, err := db.Collection(collectionClasses).Indexes().CreateMany(ctx, classes); err != nil {
		return fmt.Errorf("classes indexes: %w", err)
	}

	payments := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "date", Value: -1}}},
		{
			Keys: bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"transaction_id": bson.M{"$type": "string"}}),
		},
	}
	if _, err := db.Collection(collectionPayments).Indexes().CreateMany(ctx, payments); err != nil {
		return fmt.Errorf("payments indexes: %w", err)
	}
	return nil
}

// upstream tags a driver failure so the API reports it as an upstream error.
func upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const receiptTTL = 24 * time.Hour

// ReceiptGuard remembers processor transaction ids that have already been
// submitted for confirmation.
// Key format: receipt:<transaction_id>
type ReceiptGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReceiptGuard creates a ReceiptGuard wrapping the given Redis client.
func NewReceiptGuard(client *redis.Client) *ReceiptGuard {
	return &ReceiptGuard{client: client, ttl: receiptTTL}
}

// Claim reports true only for the first caller presenting transactionID
// within the TTL window.
func (g *ReceiptGuard) Claim(ctx context.Context, transactionID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(transactionID), time.Now().UTC().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("receipt claim: %w", err)
	}
	return ok, nil
}

// Release drops a claim so the transaction can be submitted again.
func (g *ReceiptGuard) Release(ctx context.Context, transactionID string) error {
	if err := g.client.Del(ctx, g.key(transactionID)).Err(); err != nil {
		return fmt.Errorf("receipt release: %w", err)
	}
	return nil
}

func (g *ReceiptGuard) key(transactionID string) string {
	return "receipt:" + transactionID
}

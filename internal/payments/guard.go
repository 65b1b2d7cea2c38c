package payments

import (
	"context"
	"time"

	"github.com/schoolpay/backend/pkg/redis"
)

const (
	guardScope = "razorpay-payment"
	guardTTL   = 24 * time.Hour
)

// IdempotencyGuard short-circuits duplicate gateway callbacks before they hit
// the database. It is a fast path only; the unique index on
// gateway_payment_id remains the authority.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
}

// NewIdempotencyGuard wraps a redis-backed store. A nil store disables the
// guard and every check reports first-seen.
func NewIdempotencyGuard(store redis.IdempotencyStore) *IdempotencyGuard {
	return &IdempotencyGuard{store: store}
}

// CheckAndMark marks the payment id as seen. It returns true when the id was
// already marked by an earlier callback.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, paymentID string) (bool, error) {
	if g == nil || g.store == nil {
		return false, nil
	}
	key := g.store.IdempotencyKey(guardScope, paymentID)
	set, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), guardTTL)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Release drops the marker so a failed attempt can be retried immediately.
func (g *IdempotencyGuard) Release(ctx context.Context, paymentID string) error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(guardScope, paymentID))
}

package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SubmitGuard rejects duplicate mutation submits within a short window.
// A successful submit keeps its key until the window expires, so a rapid
// second post of the same payment is refused even after the first response
// landed.
type SubmitGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmitGuard constructs a guard with the given window.
func NewSubmitGuard(client *redis.Client, ttl time.Duration) *SubmitGuard {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &SubmitGuard{client: client, ttl: ttl}
}

// Acquire claims the key for the window. Returns false when another submit
// already holds it. A nil guard always admits, so tests and the worker can
// run without redis.
func (g *SubmitGuard) Acquire(ctx context.Context, key string) (bool, error) {
	if g == nil || g.client == nil {
		return true, nil
	}
	return g.client.SetNX(ctx, "submit:"+key, uuid.NewString(), g.ttl).Result()
}

// Release frees the key early when the submit failed upstream.
func (g *SubmitGuard) Release(ctx context.Context, key string) {
	if g == nil || g.client == nil {
		return
	}
	_ = g.client.Del(ctx, "submit:"+key).Err()
}

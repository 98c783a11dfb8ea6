package cache

import (
	"context"
	"time"
)

// Store is the shared cache surface used by rate limiting, session caching,
// and upstream response caching. Both the Redis client and the database
// fallback satisfy it, so callers never branch on which backend is live.
type Store interface {
	// IncrementWithTTL bumps a counter, starting a fresh window when the key
	// is new, and reports the count plus the time left in the window.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

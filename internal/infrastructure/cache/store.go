package cache

import (
	"context"
	"time"
)

// Store is a string key-value store with per-key expiration.
// A zero expiration keeps the key until it is deleted.
type Store interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

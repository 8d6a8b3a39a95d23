package cache

import (
	"context"
	"time"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 10 * time.Minute
)

// EvictionPath names how a stale entry left the cache.
type EvictionPath string

const (
	EvictionLazy  EvictionPath = "lazy"
	EvictionSweep EvictionPath = "sweep"
)

// Store is the cache used by the analytics orchestrators.
// Every entry lives for the store's fixed TTL; Set always overwrites.
// Implemented by the in-memory store (default) and Redis (shared).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Len(ctx context.Context) (int, error)
	Close() error
}

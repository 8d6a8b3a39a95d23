package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend       string
	TTL           time.Duration
	SweepInterval time.Duration
	Prefix        string

	// OnEvict is forwarded to the memory backend.
	OnEvict func(path EvictionPath, removed, remaining int)
}

// NewStore picks the backend named by cfg.Backend; anything but "redis" is memory.
func NewStore(cfg Config, redisClient *redis.Client) Store {
	switch cfg.Backend {
	case BackendRedis:
		return NewRedisStore(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
			TTL:    cfg.TTL,
		})
	default:
		return NewMemoryStore(MemoryConfig{
			TTL:           cfg.TTL,
			SweepInterval: cfg.SweepInterval,
			OnEvict:       cfg.OnEvict,
		})
	}
}

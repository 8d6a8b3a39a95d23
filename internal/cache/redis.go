package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis. Expiry is delegated to Redis key TTLs,
// so there is no sweep: an expired key is never returned.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisConfig struct {
	Prefix string
	TTL    time.Duration
}

// NewRedisStore creates a Redis-backed cache. The client stays owned by the caller.
func NewRedisStore(client *redis.Client, config RedisConfig) *RedisStore {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// key builds the final Redis key with prefix.
func (c *RedisStore) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisStore) TTL() time.Duration { return c.ttl }

// Get retrieves a value. On Redis error it returns (nil, false, err) so the
// caller can log and treat it as a miss.
func (c *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context error: %w", err)
	}

	res, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	return res, true, nil
}

// Set stores a value with the store TTL.
func (c *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Len counts keys under the store prefix with SCAN.
func (c *RedisStore) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	count := 0
	iter := c.client.Scan(ctx, 0, c.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	return count, nil
}

// Ping checks if the Redis connection is healthy.
func (c *RedisStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	return c.client.Ping(ctx).Err()
}

func (c *RedisStore) Close() error { return nil }

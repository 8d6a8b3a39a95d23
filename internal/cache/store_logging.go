package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"perkhub-analytics/internal/metrics"
	"perkhub-analytics/pkg/logging/logging"
)

// LoggingStore wraps a Store with logging + metrics.
type LoggingStore struct {
	inner Store
}

// NewLoggingStore returns a cache that logs and records metrics.
func NewLoggingStore(inner Store) *LoggingStore {
	return &LoggingStore{inner: inner}
}

// Unwrap returns the decorated store.
func (c *LoggingStore) Unwrap() Store { return c.inner }

func (c *LoggingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := c.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
	}
	metrics.CacheLookupsTotal.WithLabelValues(result).Inc()

	fields := append(keyFields(key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("analytics_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("analytics_cache_get", fields...)
	}

	return value, ok, err
}

func (c *LoggingStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	fields := append(keyFields(key),
		zap.Int("bytes", len(value)),
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("analytics_cache_set", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("analytics_cache_set", fields...)
	}

	return err
}

func (c *LoggingStore) Len(ctx context.Context) (int, error) {
	return c.inner.Len(ctx)
}

func (c *LoggingStore) Close() error {
	return c.inner.Close()
}

func keyFields(key string) []zap.Field {
	fields := []zap.Field{zap.String("cache_key", key)}
	if k, ok := parseKey(key); ok {
		fields = append(fields, zap.String("endpoint", k.Endpoint))
	}
	return fields
}

// EvictionRecorder returns an OnEvict hook that logs sweeps and feeds the
// eviction metrics.
func EvictionRecorder(logger *zap.Logger) func(path EvictionPath, removed, remaining int) {
	return func(path EvictionPath, removed, remaining int) {
		metrics.CacheEvictionsTotal.WithLabelValues(string(path)).Add(float64(removed))
		if path != EvictionSweep {
			return
		}
		metrics.CacheEntries.Set(float64(remaining))
		logger.Info("analytics_cache_sweep",
			zap.Int("removed", removed),
			zap.Int("remaining", remaining),
		)
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"perkhub-analytics/pkg/logging/logging"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL"`

	CacheBackend       string        `env:"CACHE_BACKEND" envDefault:"memory"` // "memory" or "redis"
	CacheTTL           time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheSweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"10m"`
	CachePrefix        string        `env:"CACHE_PREFIX" envDefault:"analytics"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`

	DataStore   string `env:"DATA_STORE" envDefault:"memory"` // "memory" or "postgres"
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret       string        `env:"JWT_SECRET"`
	RateLimitPerMin int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	cfg.DataStore = strings.ToLower(strings.TrimSpace(cfg.DataStore))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field requirements that env tags cannot express.
func (c Config) Validate() error {
	var errs []error

	switch c.CacheBackend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.CacheBackend))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.CacheSweepInterval <= 0 {
		errs = append(errs, errors.New("CACHE_SWEEP_INTERVAL must be positive"))
	}

	switch c.DataStore {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DATA_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATA_STORE must be %q or %q, got %q", BackendMemory, BackendPostgres, c.DataStore))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}

	return errors.Join(errs...)
}

// Development reports whether error responses should carry diagnostic details.
func (c Config) Development() bool {
	return logging.IsDevelopment(c.Env)
}

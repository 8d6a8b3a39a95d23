package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.CacheBackend != BackendMemory || cfg.DataStore != BackendMemory {
		t.Fatalf("unexpected backends: cache=%q store=%q", cfg.CacheBackend, cfg.DataStore)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m TTL, got %s", cfg.CacheTTL)
	}
	if cfg.CacheSweepInterval != 10*time.Minute {
		t.Fatalf("expected 10m sweep interval, got %s", cfg.CacheSweepInterval)
	}
	if cfg.Development() {
		t.Fatalf("default env should be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CACHE_BACKEND", " Redis ")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheBackend != BackendRedis {
		t.Fatalf("expected normalized redis backend, got %q", cfg.CacheBackend)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected 90s TTL, got %s", cfg.CacheTTL)
	}
	if !cfg.Development() {
		t.Fatalf("expected development mode")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		CacheBackend:       BackendMemory,
		CacheTTL:           time.Minute,
		CacheSweepInterval: time.Minute,
		DataStore:          BackendMemory,
		JWTSecret:          "x",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown cache backend", mutate: func(c *Config) { c.CacheBackend = "memcached" }, wantErr: "CACHE_BACKEND"},
		{name: "zero ttl", mutate: func(c *Config) { c.CacheTTL = 0 }, wantErr: "CACHE_TTL"},
		{name: "postgres without url", mutate: func(c *Config) { c.DataStore = BackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimitPerMin = -1 }, wantErr: "RATE_LIMIT_PER_MINUTE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

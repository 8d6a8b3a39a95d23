package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"perkhub-analytics/internal/cache"
	"perkhub-analytics/internal/config"
	"perkhub-analytics/internal/handlers"
	"perkhub-analytics/internal/httpserver"
	"perkhub-analytics/internal/metrics"
	"perkhub-analytics/internal/store"
	"perkhub-analytics/internal/store/memory"
	"perkhub-analytics/internal/store/postgres"
	"perkhub-analytics/pkg/logging/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("analytics exited with error: %v", err)
	}
}

func run() error {
	// ----- Config -----
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ----- Logger -----
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("cache_sweep_interval", cfg.CacheSweepInterval),
		zap.String("data_store", cfg.DataStore),
		zap.Int("rate_limit_per_minute", cfg.RateLimitPerMin),
	)

	ctx := context.Background()

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == config.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Cache -----
	cacheCfg := cache.Config{
		Backend:       cfg.CacheBackend,
		TTL:           cfg.CacheTTL,
		SweepInterval: cfg.CacheSweepInterval,
		Prefix:        cfg.CachePrefix,
		OnEvict:       cache.EvictionRecorder(logger),
	}
	analyticsCache := cache.NewLoggingStore(cache.NewStore(cacheCfg, redisClient))
	defer analyticsCache.Close()

	// ----- Data store -----
	dataStore, closeStore, err := openDataStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ----- Handlers -----
	info := handlers.CacheInfo{Backend: cfg.CacheBackend, TTL: cfg.CacheTTL}
	if cfg.CacheBackend == config.BackendMemory {
		info.SweepInterval = cfg.CacheSweepInterval
	}
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsCache, dataStore, info, cfg.Development())

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, analyticsHandler, httpserver.Options{
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RequestTimeout:  cfg.RequestTimeout,
		Development:     cfg.Development(),
	})

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting analytics service",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("data_store", cfg.DataStore),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// openDataStore connects the configured backend. The memory backend is seeded
// with demo fixtures.
func openDataStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.DataStore, func(), error) {
	if cfg.DataStore == config.BackendPostgres {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", zap.Error(err))
			return nil, nil, err
		}
		logger.Info("database connection established")
		return postgres.New(pool), pool.Close, nil
	}

	data := memory.New()
	memory.Seed(data, time.Now(), memory.SeedOptions{
		Partners:         40,
		Users:            500,
		DealsPerPartner:  4,
		RedemptionsTotal: 3000,
		Days:             90,
		RandSeed:         1,
	})
	logger.Info("seeded in-memory data store")
	return data, func() {}, nil
}

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"perkhub-analytics/internal/handlers"
	"perkhub-analytics/internal/metrics"
	"perkhub-analytics/internal/middleware"
)

type Options struct {
	JWTSecret       string
	RateLimitPerMin int // 0 disables
	RequestTimeout  time.Duration
	Development     bool
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, analyticsHandler *handlers.AnalyticsHandler, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer(opts.Development)) // panic recovery
	r.Use(middleware.Timeout(opts.RequestTimeout)) // request timeout

	r.Route("/api/admin/analytics", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitPerMin, time.Minute))
		}
		r.Use(middleware.RequireAdmin(opts.JWTSecret))

		r.Get("/dashboard-stats", analyticsHandler.DashboardStats)
		r.Get("/redemption-trends", analyticsHandler.RedemptionTrends)
		r.Get("/partner-performance", analyticsHandler.PartnerPerformance)
		r.Get("/health", analyticsHandler.Health)
	})

	// liveness, unauthenticated
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}

package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheLookupsTotal counts cache reads by result (hit | miss | error).
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_lookups_total",
			Help: "Cache lookups partitioned by result.",
		},
		[]string{"result"},
	)

	// CacheEvictionsTotal counts stale entries removed, by path (lazy | sweep).
	CacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_cache_evictions_total",
			Help: "Stale cache entries removed, partitioned by eviction path.",
		},
		[]string{"path"},
	)

	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_cache_entries",
			Help: "Entries held by the cache after the last sweep.",
		},
	)

	FanOutTaskSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_fanout_task_seconds",
			Help:    "Latency of individual data-store fetches run by the fan-out executor.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"task", "outcome"},
	)

	AggregationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_aggregation_seconds",
			Help:    "Wall-clock cost of computing an uncached analytics response.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"endpoint"},
	)

	// HTTPLatencySeconds is keyed by route pattern, not raw path.
	HTTPLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method", "status_code"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CacheLookupsTotal,
			CacheEvictionsTotal,
			CacheEntries,
			FanOutTaskSeconds,
			AggregationSeconds,
			HTTPLatencySeconds,
		)
	})
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures latency for each HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		HTTPLatencySeconds.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

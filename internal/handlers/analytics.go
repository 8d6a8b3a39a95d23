package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"perkhub-analytics/internal/analytics"
	"perkhub-analytics/internal/cache"
	"perkhub-analytics/internal/fanout"
	"perkhub-analytics/internal/metrics"
	"perkhub-analytics/internal/query"
	"perkhub-analytics/internal/store"
	"perkhub-analytics/pkg/logging/logging"
)

const (
	EndpointDashboard   = "dashboard-stats"
	EndpointTrends      = "redemption-trends"
	EndpointPerformance = "partner-performance"
)

// Fan-out task names; they appear verbatim in failure messages.
const (
	TaskPartners    = "Partners"
	TaskUsers       = "Users"
	TaskDeals       = "Deals"
	TaskRedemptions = "Redemptions"
)

// CacheInfo describes the configured cache for the health endpoint.
type CacheInfo struct {
	Backend       string
	TTL           time.Duration
	SweepInterval time.Duration
}

// AnalyticsHandler serves the admin analytics endpoints. The cache is owned by
// the caller and shared by every request.
type AnalyticsHandler struct {
	Cache       cache.Store
	Store       store.DataStore
	Info        CacheInfo
	Development bool
	Now         func() time.Time
}

func NewAnalyticsHandler(c cache.Store, ds store.DataStore, info CacheInfo, development bool) *AnalyticsHandler {
	return &AnalyticsHandler{
		Cache:       c,
		Store:       ds,
		Info:        info,
		Development: development,
		Now:         time.Now,
	}
}

func (h *AnalyticsHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

type trendsPayload struct {
	Buckets []analytics.TrendBucket `json:"buckets"`
	Summary analytics.TrendSummary  `json:"summary"`
}

// DashboardStats handles GET /dashboard-stats.
func (h *AnalyticsHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := h.now()

	key := h.key(logger, EndpointDashboard, struct{}{})

	var stats analytics.DashboardStats
	if h.lookup(ctx, key, &stats) {
		// The cached body keeps its numbers; the timer is this request's.
		stats.Metadata.QueryTimeMs = h.now().Sub(start).Milliseconds()
		h.decision(logger, EndpointDashboard, key, true, start)
		h.respond(w, envelope{Data: stats}, true)
		return
	}

	now := start.UTC()
	values, err := fanout.Run(ctx,
		fanout.Task{Name: TaskPartners, Fetch: func(ctx context.Context) (any, error) {
			return h.Store.ListPartners(ctx, store.PartnerFilter{})
		}},
		fanout.Task{Name: TaskUsers, Fetch: func(ctx context.Context) (any, error) {
			return h.Store.ListUsers(ctx, store.UserFilter{})
		}},
		fanout.Task{Name: TaskDeals, Fetch: func(ctx context.Context) (any, error) {
			return h.Store.ListDeals(ctx, store.DealFilter{})
		}},
		fanout.Task{Name: TaskRedemptions, Fetch: func(ctx context.Context) (any, error) {
			return h.Store.ListRedemptions(ctx, store.RedemptionFilter{From: analytics.ActivityFrom(now), To: now})
		}},
	)
	if err != nil {
		writeError(w, logger, err, h.Development, h.now())
		return
	}

	in, err := dashboardInput(values)
	if err != nil {
		writeError(w, logger, err, h.Development, h.now())
		return
	}

	stats = analytics.BuildDashboard(in, now)
	stats.Metadata.QueryTimeMs = h.now().Sub(start).Milliseconds()
	metrics.AggregationSeconds.WithLabelValues(EndpointDashboard).Observe(h.now().Sub(start).Seconds())

	h.save(ctx, key, stats)
	h.decision(logger, EndpointDashboard, key, false, start)
	h.respond(w, envelope{Data: stats}, false)
}

func dashboardInput(values fanout.Values) (analytics.DashboardInput, error) {
	var (
		in  analytics.DashboardInput
		err error
	)
	if in.Partners, err = fanout.Get[[]store.Partner](values, TaskPartners); err != nil {
		return in, err
	}
	if in.Users, err = fanout.Get[[]store.User](values, TaskUsers); err != nil {
		return in, err
	}
	if in.Deals, err = fanout.Get[[]store.Deal](values, TaskDeals); err != nil {
		return in, err
	}
	if in.Redemptions, err = fanout.Get[[]store.Redemption](values, TaskRedemptions); err != nil {
		return in, err
	}
	return in, nil
}

// RedemptionTrends handles GET /redemption-trends.
func (h *AnalyticsHandler) RedemptionTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := h.now()

	params, verr := query.ParseTrends(r.URL.Query())
	if verr != nil {
		writeError(w, logger, verr, h.Development, start)
		return
	}

	key := h.key(logger, EndpointTrends, params)

	var payload trendsPayload
	if h.lookup(ctx, key, &payload) {
		h.decision(logger, EndpointTrends, key, true, start)
		h.respond(w, envelope{Data: payload.Buckets, Summary: payload.Summary}, true)
		return
	}

	window := analytics.ResolveWindow(params, start)
	values, err := fanout.Run(ctx, fanout.Task{Name: TaskRedemptions, Fetch: func(ctx context.Context) (any, error) {
		return h.Store.ListRedemptions(ctx, window.Filter())
	}})
	if err != nil {
		writeError(w, logger, err, h.Development, h.now())
		return
	}
	redemptions, err := fanout.Get[[]store.Redemption](values, TaskRedemptions)
	if err != nil {
		writeError(w, logger, err, h.Development, h.now())
		return
	}

	payload.Buckets, payload.Summary = analytics.Trends(redemptions, window)
	metrics.AggregationSeconds.WithLabelValues(EndpointTrends).Observe(h.now().Sub(start).Seconds())

	h.save(ctx, key, payload)
	h.decision(logger, EndpointTrends, key, false, start)
	h.respond(w, envelope{Data: payload.Buckets, Summary: payload.Summary}, false)
}

// PartnerPerformance handles GET /partner-performance.
func (h *AnalyticsHandler) PartnerPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := h.now()

	params, verr := query.ParsePerformance(r.URL.Query())
	if verr != nil {
		writeError(w, logger, verr, h.Development, start)
		return
	}

	key := h.key(logger, EndpointPerformance, params)

	var report analytics.PerformanceReport
	if h.lookup(ctx, key, &report) {
		h.decision(logger, EndpointPerformance, key, true, start)
		h.respond(w, performanceEnvelope(report), true)
		return
	}

	now := start.UTC()
	partners, deals, redemptions, err := h.fetchPerformance(ctx, params)
	if err != nil {
		writeError(w, logger, err, h.Development, h.now())
		return
	}

	report = analytics.RankPartners(partners, deals, redemptions, params, now)
	metrics.AggregationSeconds.WithLabelValues(EndpointPerformance).Observe(h.now().Sub(start).Seconds())

	h.save(ctx, key, report)
	h.decision(logger, EndpointPerformance, key, false, start)
	h.respond(w, performanceEnvelope(report), false)
}

// fetchPerformance loads the filtered partners, then their deals and
// redemptions concurrently.
func (h *AnalyticsHandler) fetchPerformance(ctx context.Context, p query.PerformanceParams) ([]store.Partner, []store.Deal, []store.Redemption, error) {
	values, err := fanout.Run(ctx, fanout.Task{Name: TaskPartners, Fetch: func(ctx context.Context) (any, error) {
		return h.Store.ListPartners(ctx, store.PartnerFilter{Status: p.Status, Category: p.Category})
	}})
	if err != nil {
		return nil, nil, nil, err
	}
	partners, err := fanout.Get[[]store.Partner](values, TaskPartners)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(partners) == 0 {
		return partners, nil, nil, nil
	}

	ids := make([]string, len(partners))
	for i, partner := range partners {
		ids[i] = partner.ID
	}

	values, err = fanout.Run(ctx,
		fanout.Task{Name: TaskDeals, Fetch: func(ctx context.Context) (any, error) {
			return h.Store.ListDeals(ctx, store.DealFilter{PartnerIDs: ids})
		}},
		fanout.Task{Name: TaskRedemptions, Fetch: func(ctx context.Context) (any, error) {
			return h.Store.ListRedemptions(ctx, store.RedemptionFilter{PartnerIDs: ids})
		}},
	)
	if err != nil {
		return nil, nil, nil, err
	}
	deals, err := fanout.Get[[]store.Deal](values, TaskDeals)
	if err != nil {
		return nil, nil, nil, err
	}
	redemptions, err := fanout.Get[[]store.Redemption](values, TaskRedemptions)
	if err != nil {
		return nil, nil, nil, err
	}
	return partners, deals, redemptions, nil
}

func performanceEnvelope(report analytics.PerformanceReport) envelope {
	return envelope{Data: report.Items, Summary: report.Summary, Pagination: report.Pagination}
}

type healthCache struct {
	Backend              string  `json:"backend"`
	Entries              int     `json:"entries"`
	TTLSeconds           float64 `json:"ttlSeconds"`
	SweepIntervalSeconds float64 `json:"sweepIntervalSeconds,omitempty"`
}

// Health handles GET /health with cache introspection.
func (h *AnalyticsHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	entries, err := h.Cache.Len(ctx)
	if err != nil {
		writeError(w, logger, err, h.Development, h.now())
		return
	}

	data := map[string]healthCache{
		"cache": {
			Backend:              h.Info.Backend,
			Entries:              entries,
			TTLSeconds:           h.Info.TTL.Seconds(),
			SweepIntervalSeconds: h.Info.SweepInterval.Seconds(),
		},
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Timestamp: h.now().UTC()})
}

// key returns "" when the params cannot be encoded; the request then runs
// uncached.
func (h *AnalyticsHandler) key(logger *zap.Logger, endpoint string, params any) string {
	k, err := cache.BuildKey(endpoint, params)
	if err != nil {
		logger.Warn("key_builder_error", zap.String("endpoint", endpoint), zap.Error(err))
		return ""
	}
	return k.String()
}

// lookup decodes a cached payload into out. Cache errors and undecodable
// entries count as a miss.
func (h *AnalyticsHandler) lookup(ctx context.Context, key string, out any) bool {
	if key == "" {
		return false
	}
	logger := logging.L(ctx)

	raw, hit, err := h.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("analytics_cache_get_error", zap.Error(err))
		return false
	}
	if !hit {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn("analytics_cache_unmarshal_error", zap.Error(err))
		return false
	}
	return true
}

func (h *AnalyticsHandler) save(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	logger := logging.L(ctx)

	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn("marshal_response_error", zap.Error(err))
		return
	}
	if err := h.Cache.Set(ctx, key, raw); err != nil {
		logger.Warn("analytics_cache_set_error", zap.Error(err))
	}
}

func (h *AnalyticsHandler) decision(logger *zap.Logger, endpoint, key string, hit bool, start time.Time) {
	logger.Info("cache_decision",
		zap.String("endpoint", endpoint),
		zap.String("cache_key", key),
		zap.Bool("cache_hit", hit),
		zap.Int64("total_latency_ms", h.now().Sub(start).Milliseconds()),
	)
}

func (h *AnalyticsHandler) respond(w http.ResponseWriter, env envelope, cached bool) {
	env.Success = true
	env.Cached = &cached
	env.Timestamp = h.now().UTC()
	writeJSON(w, http.StatusOK, env)
}

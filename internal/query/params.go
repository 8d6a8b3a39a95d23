package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	DefaultPeriod = "7d"
	PeriodCustom  = "custom"

	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
	MaxPage      = 1000000

	SortPerformanceScore = "performance_score"
	SortTotalRedemptions = "total_redemptions"
	SortTotalSavings     = "total_savings"
	SortBusinessName     = "business_name"

	OrderAsc  = "asc"
	OrderDesc = "desc"

	DefaultSortBy    = SortPerformanceScore
	DefaultSortOrder = OrderDesc
	DefaultStatus    = "approved"
)

// Periods lists accepted period values in ascending length.
var Periods = []string{"24h", "7d", "30d", "90d"}

var periodDurations = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// PeriodDuration returns the look-back length of a period.
func PeriodDuration(period string) (time.Duration, bool) {
	d, ok := periodDurations[period]
	return d, ok
}

// SortFields is the partner-performance sort allow-list.
var SortFields = []string{SortPerformanceScore, SortTotalRedemptions, SortTotalSavings, SortBusinessName}

var PartnerStatuses = []string{"pending", "approved", "rejected", "suspended"}

// TrendParams are the normalized redemption-trends parameters. Either Period
// is set, or both StartDate and EndDate are.
type TrendParams struct {
	Period    string `json:"period" validate:"omitempty,oneof=24h 7d 30d 90d"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// Custom reports whether an explicit date range was requested.
func (p TrendParams) Custom() bool {
	return p.StartDate != "" && p.EndDate != ""
}

// ParseTrends validates redemption-trends parameters. Explicit dates take
// precedence over period; with no dates, period defaults to 7d.
func ParseTrends(values url.Values) (TrendParams, *ValidationError) {
	p := TrendParams{
		Period:    strings.TrimSpace(values.Get("period")),
		StartDate: strings.TrimSpace(values.Get("start_date")),
		EndDate:   strings.TrimSpace(values.Get("end_date")),
	}

	// An explicit range replaces period, so a bad period is ignored.
	if p.Custom() {
		p.Period = ""
	}
	if verr := check(p); verr != nil {
		return TrendParams{}, verr
	}

	switch {
	case p.StartDate == "" && p.EndDate == "":
		if p.Period == "" {
			p.Period = DefaultPeriod
		}
		return p, nil
	case p.StartDate == "" || p.EndDate == "":
		field := "start_date"
		if p.EndDate == "" {
			field = "end_date"
		}
		return TrendParams{}, invalid(field, "Both start_date and end_date are required for a custom range")
	}

	// Layout already checked by the datetime tag.
	start, _ := time.Parse(DateLayout, p.StartDate)
	end, _ := time.Parse(DateLayout, p.EndDate)
	if start.After(end) {
		return TrendParams{}, invalid("start_date", "start_date must be on or before end_date")
	}

	p.Period = ""
	return p, nil
}

// PerformanceParams are the normalized partner-performance parameters.
type PerformanceParams struct {
	Page      int    `json:"page" validate:"gte=1,lte=1000000"`
	Limit     int    `json:"limit" validate:"gte=1,lte=100"`
	SortBy    string `json:"sort_by" validate:"oneof=performance_score total_redemptions total_savings business_name"`
	SortOrder string `json:"sort_order" validate:"oneof=asc desc"`
	Status    string `json:"status" validate:"oneof=pending approved rejected suspended"`
	Category  string `json:"category" validate:"max=64"`
}

// Offset is the index of the first row on the requested page.
func (p PerformanceParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePerformance validates partner-performance parameters and applies defaults.
func ParsePerformance(values url.Values) (PerformanceParams, *ValidationError) {
	p := PerformanceParams{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
		Status:    DefaultStatus,
		Category:  strings.TrimSpace(values.Get("category")),
	}

	var verr *ValidationError
	if p.Page, verr = intParam(values, "page", "Page", DefaultPage); verr != nil {
		return PerformanceParams{}, verr
	}
	if p.Limit, verr = intParam(values, "limit", "Limit", DefaultLimit); verr != nil {
		return PerformanceParams{}, verr
	}
	if v := strings.TrimSpace(values.Get("sort_by")); v != "" {
		p.SortBy = v
	}
	if v := strings.ToLower(strings.TrimSpace(values.Get("sort_order"))); v != "" {
		p.SortOrder = v
	}
	if v := strings.TrimSpace(values.Get("status")); v != "" {
		p.Status = v
	}

	if verr := check(p); verr != nil {
		return PerformanceParams{}, verr
	}
	return p, nil
}

func intParam(values url.Values, key, label string, def int) (int, *ValidationError) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(key, "%s must be an integer", label)
	}
	return n, nil
}

package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"perkhub-analytics/internal/query"
	"perkhub-analytics/internal/store"
)

// Window is the resolved [Start, End] range of a trends request, both ends
// inclusive, in UTC.
type Window struct {
	Period string
	Start  time.Time
	End    time.Time
}

// ResolveWindow turns validated trend params into a concrete window. Explicit
// dates cover whole UTC days; otherwise the period is subtracted from now.
func ResolveWindow(p query.TrendParams, now time.Time) Window {
	now = now.UTC()
	if p.Custom() {
		start, _ := time.Parse(query.DateLayout, p.StartDate)
		end, _ := time.Parse(query.DateLayout, p.EndDate)
		return Window{
			Period: query.PeriodCustom,
			Start:  start,
			End:    end.Add(24*time.Hour - time.Nanosecond),
		}
	}

	period := p.Period
	d, ok := query.PeriodDuration(period)
	if !ok {
		period = query.DefaultPeriod
		d, _ = query.PeriodDuration(period)
	}
	return Window{Period: period, Start: now.Add(-d), End: now}
}

// Filter is the data-store predicate for the window.
func (w Window) Filter() store.RedemptionFilter {
	return store.RedemptionFilter{From: w.Start, To: w.End}
}

type TrendBucket struct {
	Date              string  `json:"date"`
	Count             int     `json:"count"`
	TotalDiscount     float64 `json:"totalDiscount"`
	TotalOriginal     float64 `json:"totalOriginal"`
	SavingsPercentage float64 `json:"savingsPercentage"`
}

type TrendSummary struct {
	TotalRedemptions    int     `json:"totalRedemptions"`
	TotalDiscountGiven  float64 `json:"totalDiscountGiven"`
	TotalOriginalAmount float64 `json:"totalOriginalAmount"`
	AvgDailyRedemptions float64 `json:"avgDailyRedemptions"`
	OverallSavingsRate  float64 `json:"overallSavingsRate"`
	Period              string  `json:"period"`
	StartDate           string  `json:"startDate"`
	EndDate             string  `json:"endDate"`
}

type dayTotals struct {
	count    int
	discount decimal.Decimal
	original decimal.Decimal
}

// BucketRedemptions groups redemptions by the UTC calendar day of RedeemedAt
// and returns the buckets in ascending date order. Decimal accumulation keeps
// the sums independent of input order.
func BucketRedemptions(rs []store.Redemption) []TrendBucket {
	days := make(map[string]*dayTotals)
	for _, r := range rs {
		day := r.RedeemedAt.UTC().Format(query.DateLayout)
		t, ok := days[day]
		if !ok {
			t = &dayTotals{}
			days[day] = t
		}
		t.count++
		t.discount = t.discount.Add(r.DiscountAmount)
		t.original = t.original.Add(r.OriginalAmount)
	}

	buckets := make([]TrendBucket, 0, len(days))
	for day, t := range days {
		buckets = append(buckets, TrendBucket{
			Date:              day,
			Count:             t.count,
			TotalDiscount:     money(t.discount),
			TotalOriginal:     money(t.original),
			SavingsPercentage: percentOf(t.discount, t.original),
		})
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })
	return buckets
}

// Trends buckets rs and summarises the window.
func Trends(rs []store.Redemption, w Window) ([]TrendBucket, TrendSummary) {
	buckets := BucketRedemptions(rs)

	var discount, original decimal.Decimal
	for _, r := range rs {
		discount = discount.Add(r.DiscountAmount)
		original = original.Add(r.OriginalAmount)
	}
	discount = discount.Round(2)
	original = original.Round(2)

	summary := TrendSummary{
		TotalRedemptions:    len(rs),
		TotalDiscountGiven:  money(discount),
		TotalOriginalAmount: money(original),
		OverallSavingsRate:  percentOf(discount, original),
		Period:              w.Period,
		StartDate:           w.Start.UTC().Format(time.RFC3339),
		EndDate:             w.End.UTC().Format(time.RFC3339),
	}
	if len(buckets) > 0 {
		summary.AvgDailyRedemptions = round2(float64(len(rs)) / float64(len(buckets)))
	}
	return buckets, summary
}

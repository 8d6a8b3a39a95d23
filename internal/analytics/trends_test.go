package analytics

import (
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"perkhub-analytics/internal/query"
	"perkhub-analytics/internal/store"
)

func redemption(at string, discount, original int64) store.Redemption {
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		panic(err)
	}
	return store.Redemption{
		RedeemedAt:     ts,
		DiscountAmount: decimal.NewFromInt(discount),
		OriginalAmount: decimal.NewFromInt(original),
		FinalAmount:    decimal.NewFromInt(original - discount),
	}
}

func TestTrendsConcreteScenario(t *testing.T) {
	rs := []store.Redemption{
		redemption("2025-01-01T09:00:00Z", 10, 100),
		redemption("2025-01-01T18:30:00Z", 5, 50),
		redemption("2025-01-02T12:00:00Z", 20, 100),
	}

	buckets, summary := Trends(rs, Window{Period: "7d"})

	want := []TrendBucket{
		{Date: "2025-01-01", Count: 2, TotalDiscount: 15, TotalOriginal: 150, SavingsPercentage: 10},
		{Date: "2025-01-02", Count: 1, TotalDiscount: 20, TotalOriginal: 100, SavingsPercentage: 20},
	}
	if !reflect.DeepEqual(buckets, want) {
		t.Fatalf("unexpected buckets:\n got: %#v\nwant: %#v", buckets, want)
	}

	if summary.TotalRedemptions != 3 ||
		summary.TotalDiscountGiven != 35 ||
		summary.TotalOriginalAmount != 250 ||
		summary.AvgDailyRedemptions != 1.5 ||
		summary.OverallSavingsRate != 14 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestBucketUsesUTCDay(t *testing.T) {
	// 23:30 at UTC-5 is 04:30 the next UTC day.
	local := time.FixedZone("EST", -5*3600)
	r := redemption("2025-01-01T00:00:00Z", 1, 10)
	r.RedeemedAt = time.Date(2025, 1, 1, 23, 30, 0, 0, local)

	buckets := BucketRedemptions([]store.Redemption{r})
	if len(buckets) != 1 || buckets[0].Date != "2025-01-02" {
		t.Fatalf("expected a 2025-01-02 bucket, got %#v", buckets)
	}
}

func TestBucketingIsOrderIndependent(t *testing.T) {
	var rs []store.Redemption
	for i := range 200 {
		r := redemption("2025-03-01T00:00:00Z", 0, 0)
		r.RedeemedAt = r.RedeemedAt.Add(time.Duration(i) * 37 * time.Minute)
		r.DiscountAmount = decimal.New(int64(i%13)+1, -1)
		r.OriginalAmount = decimal.New(int64(i%7)*100+33, -2)
		rs = append(rs, r)
	}

	want := BucketRedemptions(rs)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 5 {
		shuffled := append([]store.Redemption(nil), rs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := BucketRedemptions(shuffled); !reflect.DeepEqual(got, want) {
			t.Fatalf("bucketing depends on input order")
		}
	}
}

func TestBucketZeroOriginal(t *testing.T) {
	buckets := BucketRedemptions([]store.Redemption{redemption("2025-01-01T00:00:00Z", 0, 0)})
	if buckets[0].SavingsPercentage != 0 {
		t.Fatalf("expected 0 savings percentage, got %v", buckets[0].SavingsPercentage)
	}
}

func TestTrendsEmpty(t *testing.T) {
	buckets, summary := Trends(nil, Window{Period: "24h"})
	if buckets == nil || len(buckets) != 0 {
		t.Fatalf("expected empty non-nil buckets, got %#v", buckets)
	}
	if summary.AvgDailyRedemptions != 0 || summary.OverallSavingsRate != 0 {
		t.Fatalf("expected zero summary, got %#v", summary)
	}
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	w := ResolveWindow(query.TrendParams{Period: "30d"}, now)
	if w.Period != "30d" || !w.End.Equal(now) || !w.Start.Equal(now.Add(-30*24*time.Hour)) {
		t.Fatalf("unexpected period window: %#v", w)
	}

	w = ResolveWindow(query.TrendParams{StartDate: "2025-01-01", EndDate: "2025-01-31"}, now)
	if w.Period != query.PeriodCustom {
		t.Fatalf("expected custom period, got %q", w.Period)
	}
	if !w.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", w.Start)
	}
	lastInstant := time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC)
	if !w.End.Equal(lastInstant) {
		t.Fatalf("end date should cover the whole day, got %s", w.End)
	}

	f := w.Filter()
	if !f.From.Equal(w.Start) || !f.To.Equal(w.End) || f.PartnerIDs != nil {
		t.Fatalf("unexpected filter %#v", f)
	}
}

func TestResolveWindowFallsBackToDefaultPeriod(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	w := ResolveWindow(query.TrendParams{}, now)
	if w.Period != query.DefaultPeriod || !w.Start.Equal(now.Add(-7*24*time.Hour)) {
		t.Fatalf("unexpected window %#v", w)
	}
}

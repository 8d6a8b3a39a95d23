package analytics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"perkhub-analytics/internal/query"
	"perkhub-analytics/internal/store"
)

var rankNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fixture builds n partners where partner i has ten active deals and i
// redemptions, so its performance score is exactly i.
func fixture(n int) ([]store.Partner, []store.Deal, []store.Redemption) {
	var (
		partners    []store.Partner
		deals       []store.Deal
		redemptions []store.Redemption
	)
	for i := range n {
		pid := fmt.Sprintf("p%02d", i)
		partners = append(partners, store.Partner{ID: pid, BusinessName: fmt.Sprintf("Biz %02d", n-i), Status: store.PartnerApproved})
		for d := range 10 {
			deals = append(deals, store.Deal{ID: fmt.Sprintf("%s-d%d", pid, d), PartnerID: pid, Status: store.DealActive})
		}
		for r := range i {
			redemptions = append(redemptions, store.Redemption{
				ID:             fmt.Sprintf("%s-r%d", pid, r),
				PartnerID:      pid,
				RedeemedAt:     rankNow.Add(-time.Hour),
				DiscountAmount: decimal.NewFromFloat(2.5),
				FinalAmount:    decimal.NewFromInt(10),
			})
		}
	}
	return partners, deals, redemptions
}

func TestRankPartnersSecondPage(t *testing.T) {
	partners, deals, redemptions := fixture(25)
	p := query.PerformanceParams{Page: 2, Limit: 10, SortBy: query.SortPerformanceScore, SortOrder: query.OrderDesc, Status: "approved"}

	report := RankPartners(partners, deals, redemptions, p, rankNow)

	if len(report.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(report.Items))
	}
	// Ranks 11..20 in descending score order are scores 14..5.
	for i, item := range report.Items {
		if want := 14 - i; item.PerformanceScore != want {
			t.Fatalf("item %d: expected score %d, got %d", i, want, item.PerformanceScore)
		}
	}

	pg := report.Pagination
	if pg.TotalPages != 3 || !pg.HasNext || !pg.HasPrev || pg.Total != 25 {
		t.Fatalf("unexpected pagination: %#v", pg)
	}

	s := report.Summary
	if s.TotalPartners != 25 || s.TotalActiveDeals != 250 || s.TotalRedemptions != 300 {
		t.Fatalf("summary should cover the full set: %#v", s)
	}
	if s.TotalSavings != 750 || s.AvgPerformanceScore != 12 {
		t.Fatalf("unexpected summary totals: %#v", s)
	}
	if s.TopPerformer == nil || s.TopPerformer.PartnerID != "p24" {
		t.Fatalf("unexpected top performer: %#v", s.TopPerformer)
	}
}

func TestPaginationIsComplete(t *testing.T) {
	partners, deals, redemptions := fixture(23)
	// Collapse scores so tie-breaking decides most of the order.
	for i := range redemptions {
		redemptions[i].PartnerID = partners[i%3].ID
	}

	for _, limit := range []int{1, 4, 7, 10, 23, 50} {
		records := Score(partners, deals, redemptions, rankNow)
		SortRecords(records, query.SortPerformanceScore, query.OrderDesc)

		seen := make(map[string]bool)
		var joined []string
		_, first := Paginate(records, 1, limit)
		for page := 1; page <= first.TotalPages; page++ {
			items, pg := Paginate(records, page, limit)
			if pg.HasNext != ((page-1)*limit+limit < len(records)) {
				t.Fatalf("limit %d page %d: wrong hasNext", limit, page)
			}
			for _, it := range items {
				if seen[it.PartnerID] {
					t.Fatalf("limit %d: duplicate %s", limit, it.PartnerID)
				}
				seen[it.PartnerID] = true
				joined = append(joined, it.PartnerID)
			}
		}
		if len(joined) != len(records) {
			t.Fatalf("limit %d: pages cover %d of %d records", limit, len(joined), len(records))
		}
		for i := range records {
			if joined[i] != records[i].PartnerID {
				t.Fatalf("limit %d: order differs at %d", limit, i)
			}
		}
	}
}

func TestPaginateBeyondLastPage(t *testing.T) {
	partners, deals, redemptions := fixture(5)
	records := Score(partners, deals, redemptions, rankNow)

	items, pg := Paginate(records, 4, 2)
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil page, got %#v", items)
	}
	if pg.HasNext || !pg.HasPrev || pg.TotalPages != 3 {
		t.Fatalf("unexpected pagination %#v", pg)
	}
}

func TestPaginateHugePage(t *testing.T) {
	partners, deals, redemptions := fixture(5)
	records := Score(partners, deals, redemptions, rankNow)

	for _, page := range []int{92233720368547760, math.MaxInt} {
		items, pg := Paginate(records, page, 100)
		if items == nil || len(items) != 0 {
			t.Fatalf("page %d: expected empty non-nil page, got %#v", page, items)
		}
		if pg.HasNext || !pg.HasPrev || pg.Total != 5 || pg.TotalPages != 1 {
			t.Fatalf("page %d: unexpected pagination %#v", page, pg)
		}
	}
}

func TestPerformanceScoreBounds(t *testing.T) {
	tests := []struct {
		redemptions, active, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 0, 10},
		{3, 2, 15},
		{1, 4, 3}, // 2.5 rounds half up
		{1, 3, 3},
		{10, 1, 100},
		{500, 1, 100},
	}
	for _, tt := range tests {
		if got := PerformanceScore(tt.redemptions, tt.active); got != tt.want {
			t.Fatalf("PerformanceScore(%d, %d) = %d, want %d", tt.redemptions, tt.active, got, tt.want)
		}
	}

	rng := rand.New(rand.NewPCG(7, 7))
	for range 1000 {
		got := PerformanceScore(rng.IntN(10_000), rng.IntN(50))
		if got < 0 || got > 100 {
			t.Fatalf("score %d out of bounds", got)
		}
	}
}

func TestEngagementRate(t *testing.T) {
	if got := EngagementRate(5, 0); got != 0 {
		t.Fatalf("expected 0 without deals, got %v", got)
	}
	if got := EngagementRate(2, 3); got != 0.67 {
		t.Fatalf("expected 0.67, got %v", got)
	}
}

func TestEverySortFieldHasComparator(t *testing.T) {
	for _, field := range query.SortFields {
		if _, ok := ComparatorFor(field); !ok {
			t.Fatalf("sort field %q has no comparator", field)
		}
	}
	if len(comparators) != len(query.SortFields) {
		t.Fatalf("comparator table has %d entries, allow-list has %d", len(comparators), len(query.SortFields))
	}
}

func TestSortDirections(t *testing.T) {
	partners, deals, redemptions := fixture(5)

	tests := []struct {
		sortBy, order, first string
	}{
		{query.SortPerformanceScore, query.OrderDesc, "p04"},
		{query.SortPerformanceScore, query.OrderAsc, "p00"},
		{query.SortTotalRedemptions, query.OrderDesc, "p04"},
		{query.SortTotalSavings, query.OrderAsc, "p00"},
		// Names run "Biz 05" for p00 down to "Biz 01" for p04.
		{query.SortBusinessName, query.OrderAsc, "p04"},
		{query.SortBusinessName, query.OrderDesc, "p00"},
	}
	for _, tt := range tests {
		records := Score(partners, deals, redemptions, rankNow)
		SortRecords(records, tt.sortBy, tt.order)
		if records[0].PartnerID != tt.first {
			t.Fatalf("%s %s: expected %s first, got %s", tt.sortBy, tt.order, tt.first, records[0].PartnerID)
		}
	}
}

func TestScoreCountsOnlyLiveDeals(t *testing.T) {
	past := rankNow.Add(-time.Hour)
	future := rankNow.Add(time.Hour)
	partners := []store.Partner{{ID: "p1"}}
	deals := []store.Deal{
		{ID: "d1", PartnerID: "p1", Status: store.DealActive},
		{ID: "d2", PartnerID: "p1", Status: store.DealActive, EndDate: &future},
		{ID: "d3", PartnerID: "p1", Status: store.DealActive, EndDate: &past},
		{ID: "d4", PartnerID: "p1", Status: store.DealInactive},
		{ID: "d5", PartnerID: "other", Status: store.DealActive},
	}
	redemptions := []store.Redemption{
		{PartnerID: "p1", DiscountAmount: decimal.RequireFromString("1.10"), FinalAmount: decimal.RequireFromString("9.90")},
		{PartnerID: "p1", DiscountAmount: decimal.RequireFromString("2.20"), FinalAmount: decimal.RequireFromString("7.80")},
		{PartnerID: "other", DiscountAmount: decimal.NewFromInt(100)},
	}

	recs := Score(partners, deals, redemptions, rankNow)
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	r := recs[0]
	if r.TotalDeals != 4 || r.ActiveDeals != 2 {
		t.Fatalf("unexpected deal counts: total=%d active=%d", r.TotalDeals, r.ActiveDeals)
	}
	if r.TotalRedemptions != 2 || r.TotalSavings != 3.3 || r.TotalRevenue != 17.7 {
		t.Fatalf("unexpected redemption totals: %#v", r)
	}
	if r.PerformanceScore != 10 || r.EngagementRate != 0.5 {
		t.Fatalf("unexpected derived values: score=%d rate=%v", r.PerformanceScore, r.EngagementRate)
	}
}

func TestSummariseEmpty(t *testing.T) {
	s := Summarise(nil)
	if s.TopPerformer != nil || s.AvgPerformanceScore != 0 {
		t.Fatalf("unexpected empty summary %#v", s)
	}
}

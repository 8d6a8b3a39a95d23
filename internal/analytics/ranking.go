package analytics

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"perkhub-analytics/internal/query"
	"perkhub-analytics/internal/store"
)

const maxPerformanceScore = 100

type PartnerPerformance struct {
	PartnerID        string  `json:"partner_id"`
	BusinessName     string  `json:"business_name"`
	Category         string  `json:"category"`
	Status           string  `json:"status"`
	TotalDeals       int     `json:"total_deals"`
	ActiveDeals      int     `json:"active_deals"`
	TotalRedemptions int     `json:"total_redemptions"`
	TotalSavings     float64 `json:"total_savings"`
	TotalRevenue     float64 `json:"total_revenue"`
	PerformanceScore int     `json:"performance_score"`
	EngagementRate   float64 `json:"engagement_rate"`

	savings decimal.Decimal
}

type TopPerformer struct {
	PartnerID        string `json:"partner_id"`
	BusinessName     string `json:"business_name"`
	PerformanceScore int    `json:"performance_score"`
}

type PerformanceSummary struct {
	TotalPartners       int           `json:"totalPartners"`
	TotalActiveDeals    int           `json:"totalActiveDeals"`
	TotalRedemptions    int           `json:"totalRedemptions"`
	TotalSavings        float64       `json:"totalSavings"`
	AvgPerformanceScore float64       `json:"avgPerformanceScore"`
	TopPerformer        *TopPerformer `json:"topPerformer"`
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type PerformanceReport struct {
	Items      []PartnerPerformance `json:"items"`
	Summary    PerformanceSummary   `json:"summary"`
	Pagination Pagination           `json:"pagination"`
}

// Comparator orders two records ascending by one sort field.
type Comparator func(a, b *PartnerPerformance) int

// comparators is keyed by the sort_by allow-list in query.SortFields.
var comparators = map[string]Comparator{
	query.SortPerformanceScore: func(a, b *PartnerPerformance) int {
		return cmp.Compare(a.PerformanceScore, b.PerformanceScore)
	},
	query.SortTotalRedemptions: func(a, b *PartnerPerformance) int {
		return cmp.Compare(a.TotalRedemptions, b.TotalRedemptions)
	},
	query.SortTotalSavings: func(a, b *PartnerPerformance) int {
		return a.savings.Cmp(b.savings)
	},
	query.SortBusinessName: func(a, b *PartnerPerformance) int {
		return strings.Compare(a.BusinessName, b.BusinessName)
	},
}

// ComparatorFor resolves a validated sort field.
func ComparatorFor(sortBy string) (Comparator, bool) {
	c, ok := comparators[sortBy]
	return c, ok
}

// PerformanceScore is redemptions per active deal times ten, rounded half up
// and capped at 100. A partner without active deals is scored as if it had one.
func PerformanceScore(redemptions, activeDeals int) int {
	if redemptions <= 0 {
		return 0
	}
	x := float64(redemptions) / float64(max(1, activeDeals)) * 10
	return min(maxPerformanceScore, int(math.Floor(x+0.5)))
}

// EngagementRate is redemptions per deal rounded to 2 places, 0 without deals.
func EngagementRate(redemptions, totalDeals int) float64 {
	if totalDeals <= 0 {
		return 0
	}
	return round2(float64(redemptions) / float64(totalDeals))
}

type dealStats struct {
	total  int
	active int
}

type redemptionStats struct {
	count   int
	savings decimal.Decimal
	revenue decimal.Decimal
}

// Score builds one record per partner from the deal and redemption snapshots.
// Deals and redemptions of partners not in the list are ignored.
func Score(partners []store.Partner, deals []store.Deal, redemptions []store.Redemption, now time.Time) []PartnerPerformance {
	ds := make(map[string]*dealStats, len(partners))
	rs := make(map[string]*redemptionStats, len(partners))
	for _, p := range partners {
		ds[p.ID] = &dealStats{}
		rs[p.ID] = &redemptionStats{}
	}

	for _, d := range deals {
		s, ok := ds[d.PartnerID]
		if !ok {
			continue
		}
		s.total++
		if d.ActiveAt(now) {
			s.active++
		}
	}
	for _, r := range redemptions {
		s, ok := rs[r.PartnerID]
		if !ok {
			continue
		}
		s.count++
		s.savings = s.savings.Add(r.DiscountAmount)
		s.revenue = s.revenue.Add(r.FinalAmount)
	}

	out := make([]PartnerPerformance, 0, len(partners))
	for _, p := range partners {
		d, r := ds[p.ID], rs[p.ID]
		out = append(out, PartnerPerformance{
			PartnerID:        p.ID,
			BusinessName:     p.BusinessName,
			Category:         p.Category,
			Status:           p.Status,
			TotalDeals:       d.total,
			ActiveDeals:      d.active,
			TotalRedemptions: r.count,
			TotalSavings:     money(r.savings),
			TotalRevenue:     money(r.revenue),
			PerformanceScore: PerformanceScore(r.count, d.active),
			EngagementRate:   EngagementRate(r.count, d.total),
			savings:          r.savings,
		})
	}
	return out
}

// SortRecords orders records in place by sortBy and order. Ties fall back to
// partner id ascending so that pages never overlap.
func SortRecords(records []PartnerPerformance, sortBy, order string) {
	compare, ok := ComparatorFor(sortBy)
	if !ok {
		compare = comparators[query.DefaultSortBy]
	}
	dir := 1
	if order == query.OrderDesc {
		dir = -1
	}
	slices.SortStableFunc(records, func(a, b PartnerPerformance) int {
		if c := compare(&a, &b) * dir; c != 0 {
			return c
		}
		return strings.Compare(a.PartnerID, b.PartnerID)
	})
}

// Paginate slices one page out of the full sorted set.
func Paginate(records []PartnerPerformance, page, limit int) ([]PartnerPerformance, Pagination) {
	total := len(records)
	// Pages past the end clamp to total so huge page numbers cannot overflow.
	offset := total
	if limit > 0 && page-1 <= total/limit {
		offset = (page - 1) * limit
	}

	pg := Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasNext: offset+limit < total,
		HasPrev: page > 1,
	}
	if limit > 0 {
		pg.TotalPages = (total + limit - 1) / limit
	}

	if offset >= total {
		return []PartnerPerformance{}, pg
	}
	end := min(offset+limit, total)
	return records[offset:end], pg
}

// Summarise totals the full sorted set. The top performer is its first row.
func Summarise(sorted []PartnerPerformance) PerformanceSummary {
	s := PerformanceSummary{TotalPartners: len(sorted)}
	if len(sorted) == 0 {
		return s
	}

	var savings decimal.Decimal
	scoreSum := 0
	for _, r := range sorted {
		s.TotalActiveDeals += r.ActiveDeals
		s.TotalRedemptions += r.TotalRedemptions
		savings = savings.Add(r.savings)
		scoreSum += r.PerformanceScore
	}
	s.TotalSavings = money(savings)
	s.AvgPerformanceScore = round2(float64(scoreSum) / float64(len(sorted)))

	top := sorted[0]
	s.TopPerformer = &TopPerformer{
		PartnerID:        top.PartnerID,
		BusinessName:     top.BusinessName,
		PerformanceScore: top.PerformanceScore,
	}
	return s
}

// RankPartners scores, sorts, summarises and paginates in one pass.
func RankPartners(partners []store.Partner, deals []store.Deal, redemptions []store.Redemption, p query.PerformanceParams, now time.Time) PerformanceReport {
	records := Score(partners, deals, redemptions, now)
	SortRecords(records, p.SortBy, p.SortOrder)

	page, pg := Paginate(records, p.Page, p.Limit)
	return PerformanceReport{
		Items:      page,
		Summary:    Summarise(records),
		Pagination: pg,
	}
}

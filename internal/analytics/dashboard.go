package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"perkhub-analytics/internal/store"
)

const (
	week  = 7 * 24 * time.Hour
	month = 30 * 24 * time.Hour
)

type PartnerCounts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

type UserCounts struct {
	Total        int `json:"total"`
	NewThisWeek  int `json:"newThisWeek"`
	NewThisMonth int `json:"newThisMonth"`
}

type DealCounts struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

type Activity struct {
	RedemptionsToday        int     `json:"redemptionsToday"`
	RedemptionsThisWeek     int     `json:"redemptionsThisWeek"`
	RedemptionsThisMonth    int     `json:"redemptionsThisMonth"`
	SavingsThisMonth        float64 `json:"savingsThisMonth"`
	AvgSavingsPerRedemption float64 `json:"avgSavingsPerRedemption"`
}

type Metadata struct {
	QueryTimeMs int64     `json:"queryTimeMs"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type DashboardStats struct {
	Partners PartnerCounts `json:"partners"`
	Users    UserCounts    `json:"users"`
	Deals    DealCounts    `json:"deals"`
	Activity Activity      `json:"activity"`
	Metadata Metadata      `json:"metadata"`
}

// DashboardInput is the snapshot fetched by the dashboard fan-out.
type DashboardInput struct {
	Partners    []store.Partner
	Users       []store.User
	Deals       []store.Deal
	Redemptions []store.Redemption
}

// ActivityFrom is the earliest redemption time the dashboard looks at.
func ActivityFrom(now time.Time) time.Time {
	return now.UTC().Add(-month)
}

// BuildDashboard computes the dashboard aggregate at now. "Week" and "month"
// are trailing 7 and 30 days; "today" is the current UTC calendar day.
func BuildDashboard(in DashboardInput, now time.Time) DashboardStats {
	now = now.UTC()
	weekAgo := now.Add(-week)
	monthAgo := now.Add(-month)
	today := now.Truncate(24 * time.Hour)

	var stats DashboardStats
	stats.Metadata.GeneratedAt = now

	stats.Partners.Total = len(in.Partners)
	for _, p := range in.Partners {
		switch p.Status {
		case store.PartnerApproved:
			stats.Partners.Approved++
		case store.PartnerPending:
			stats.Partners.Pending++
		case store.PartnerRejected:
			stats.Partners.Rejected++
		}
	}

	stats.Users.Total = len(in.Users)
	for _, u := range in.Users {
		if !u.CreatedAt.Before(weekAgo) {
			stats.Users.NewThisWeek++
		}
		if !u.CreatedAt.Before(monthAgo) {
			stats.Users.NewThisMonth++
		}
	}

	stats.Deals.Total = len(in.Deals)
	for _, d := range in.Deals {
		switch {
		case d.ActiveAt(now):
			stats.Deals.Active++
		case d.EndDate != nil && !d.EndDate.After(now):
			stats.Deals.Expired++
		}
	}

	var savings decimal.Decimal
	for _, r := range in.Redemptions {
		at := r.RedeemedAt.UTC()
		if at.Before(monthAgo) || at.After(now) {
			continue
		}
		stats.Activity.RedemptionsThisMonth++
		savings = savings.Add(r.DiscountAmount)
		if !at.Before(weekAgo) {
			stats.Activity.RedemptionsThisWeek++
		}
		if !at.Before(today) {
			stats.Activity.RedemptionsToday++
		}
	}
	stats.Activity.SavingsThisMonth = money(savings)
	if n := stats.Activity.RedemptionsThisMonth; n > 0 {
		stats.Activity.AvgSavingsPerRedemption = money(savings.Div(decimal.NewFromInt(int64(n))))
	}

	return stats
}

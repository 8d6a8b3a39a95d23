// Package store defines the read-only data-store contract consumed by the
// analytics engine. The relational schema behind it lives elsewhere; this
// package only names the records and the predicates the engine filters on.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PartnerPending   = "pending"
	PartnerApproved  = "approved"
	PartnerRejected  = "rejected"
	PartnerSuspended = "suspended"

	DealActive   = "active"
	DealInactive = "inactive"
)

type Partner struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Deal struct {
	ID        string     `json:"id"`
	PartnerID string     `json:"partner_id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ActiveAt reports whether the deal is live at now: status active and either
// open-ended or ending strictly after now.
func (d Deal) ActiveAt(now time.Time) bool {
	if d.Status != DealActive {
		return false
	}
	return d.EndDate == nil || d.EndDate.After(now)
}

type Redemption struct {
	ID             string          `json:"id"`
	DealID         string          `json:"deal_id"`
	PartnerID      string          `json:"partner_id"`
	UserID         string          `json:"user_id"`
	RedeemedAt     time.Time       `json:"redeemed_at"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// PartnerFilter matches on equality; empty fields match everything.
type PartnerFilter struct {
	Status   string
	Category string
}

// UserFilter restricts users to those created at or after CreatedFrom (zero = no bound).
type UserFilter struct {
	CreatedFrom time.Time
}

// DealFilter restricts deals to the given partners. A nil slice matches every
// partner; an empty non-nil slice matches none.
type DealFilter struct {
	PartnerIDs []string
}

// RedemptionFilter restricts redemptions by partner and by the inclusive
// [From, To] window on redeemed_at. Zero times leave that side unbounded.
type RedemptionFilter struct {
	PartnerIDs []string
	From       time.Time
	To         time.Time
}

// DataStore is the queryable repository behind the analytics endpoints.
// Every call may fail and may block on I/O.
type DataStore interface {
	ListPartners(ctx context.Context, f PartnerFilter) ([]Partner, error)
	CountPartners(ctx context.Context, f PartnerFilter) (int, error)
	ListUsers(ctx context.Context, f UserFilter) ([]User, error)
	CountUsers(ctx context.Context, f UserFilter) (int, error)
	ListDeals(ctx context.Context, f DealFilter) ([]Deal, error)
	CountDeals(ctx context.Context, f DealFilter) (int, error)
	ListRedemptions(ctx context.Context, f RedemptionFilter) ([]Redemption, error)
	CountRedemptions(ctx context.Context, f RedemptionFilter) (int, error)
}

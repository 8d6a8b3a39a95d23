package postgres

import (
	"strconv"
	"strings"

	"perkhub-analytics/internal/store"
)

const (
	selectPartners = `SELECT id::text, business_name, COALESCE(category, ''), status, COALESCE(email, ''), created_at FROM partners`
	countPartners  = `SELECT COUNT(*) FROM partners`

	selectUsers = `SELECT id::text, COALESCE(role, ''), created_at FROM users`
	countUsers  = `SELECT COUNT(*) FROM users`

	selectDeals = `SELECT id::text, partner_id::text, title, status, end_date, created_at FROM deals`
	countDeals  = `SELECT COUNT(*) FROM deals`

	selectRedemptions = `SELECT id::text, deal_id::text, partner_id::text, user_id::text, redeemed_at,
       COALESCE(discount_amount, 0)::text, COALESCE(original_amount, 0)::text, COALESCE(final_amount, 0)::text
FROM redemptions`
	countRedemptions = `SELECT COUNT(*) FROM redemptions`
)

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

// none forces the query to match nothing.
func (w *where) none() {
	w.clauses = append(w.clauses, "FALSE")
}

func (w *where) apply(base string) string {
	if len(w.clauses) == 0 {
		return base
	}
	return base + " WHERE " + strings.Join(w.clauses, " AND ")
}

func partnerWhere(f store.PartnerFilter) *where {
	w := &where{}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	return w
}

func userWhere(f store.UserFilter) *where {
	w := &where{}
	if !f.CreatedFrom.IsZero() {
		w.add("created_at >= ?", f.CreatedFrom.UTC())
	}
	return w
}

func partnerIDsWhere(w *where, ids []string) {
	switch {
	case ids == nil:
	case len(ids) == 0:
		w.none()
	default:
		w.add("partner_id::text = ANY(?)", ids)
	}
}

func dealWhere(f store.DealFilter) *where {
	w := &where{}
	partnerIDsWhere(w, f.PartnerIDs)
	return w
}

func redemptionWhere(f store.RedemptionFilter) *where {
	w := &where{}
	partnerIDsWhere(w, f.PartnerIDs)
	if !f.From.IsZero() {
		w.add("redeemed_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		w.add("redeemed_at <= ?", f.To.UTC())
	}
	return w
}

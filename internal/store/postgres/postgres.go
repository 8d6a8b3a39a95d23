// Package postgres implements store.DataStore on a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"perkhub-analytics/internal/store"
)

// NewPool opens a pgx pool for databaseURL and verifies it with a ping.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Store reads analytics source records from PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.DataStore = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) count(ctx context.Context, base string, w *where) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, w.apply(base), w.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) ListPartners(ctx context.Context, f store.PartnerFilter) ([]store.Partner, error) {
	w := partnerWhere(f)
	rows, err := s.pool.Query(ctx, w.apply(selectPartners)+" ORDER BY created_at", w.args...)
	if err != nil {
		return nil, fmt.Errorf("query partners: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Partner, error) {
		var p store.Partner
		err := row.Scan(&p.ID, &p.BusinessName, &p.Category, &p.Status, &p.Email, &p.CreatedAt)
		return p, err
	})
}

func (s *Store) CountPartners(ctx context.Context, f store.PartnerFilter) (int, error) {
	return s.count(ctx, countPartners, partnerWhere(f))
}

func (s *Store) ListUsers(ctx context.Context, f store.UserFilter) ([]store.User, error) {
	w := userWhere(f)
	rows, err := s.pool.Query(ctx, w.apply(selectUsers), w.args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.User, error) {
		var u store.User
		err := row.Scan(&u.ID, &u.Role, &u.CreatedAt)
		return u, err
	})
}

func (s *Store) CountUsers(ctx context.Context, f store.UserFilter) (int, error) {
	return s.count(ctx, countUsers, userWhere(f))
}

func (s *Store) ListDeals(ctx context.Context, f store.DealFilter) ([]store.Deal, error) {
	w := dealWhere(f)
	rows, err := s.pool.Query(ctx, w.apply(selectDeals), w.args...)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Deal, error) {
		var d store.Deal
		err := row.Scan(&d.ID, &d.PartnerID, &d.Title, &d.Status, &d.EndDate, &d.CreatedAt)
		return d, err
	})
}

func (s *Store) CountDeals(ctx context.Context, f store.DealFilter) (int, error) {
	return s.count(ctx, countDeals, dealWhere(f))
}

func (s *Store) ListRedemptions(ctx context.Context, f store.RedemptionFilter) ([]store.Redemption, error) {
	w := redemptionWhere(f)
	rows, err := s.pool.Query(ctx, w.apply(selectRedemptions), w.args...)
	if err != nil {
		return nil, fmt.Errorf("query redemptions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Redemption, error) {
		var (
			r                         store.Redemption
			discount, original, final string
		)
		if err := row.Scan(&r.ID, &r.DealID, &r.PartnerID, &r.UserID, &r.RedeemedAt, &discount, &original, &final); err != nil {
			return r, err
		}
		var err error
		if r.DiscountAmount, err = decimal.NewFromString(discount); err != nil {
			return r, fmt.Errorf("redemption %s discount_amount: %w", r.ID, err)
		}
		if r.OriginalAmount, err = decimal.NewFromString(original); err != nil {
			return r, fmt.Errorf("redemption %s original_amount: %w", r.ID, err)
		}
		if r.FinalAmount, err = decimal.NewFromString(final); err != nil {
			return r, fmt.Errorf("redemption %s final_amount: %w", r.ID, err)
		}
		return r, nil
	})
}

func (s *Store) CountRedemptions(ctx context.Context, f store.RedemptionFilter) (int, error) {
	return s.count(ctx, countRedemptions, redemptionWhere(f))
}

// Package memory is an in-process store.DataStore used for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"perkhub-analytics/internal/store"
)

// Kind names one record collection, for failure injection.
type Kind string

const (
	KindPartners    Kind = "partners"
	KindUsers       Kind = "users"
	KindDeals       Kind = "deals"
	KindRedemptions Kind = "redemptions"
)

type Store struct {
	mu          sync.RWMutex
	partners    []store.Partner
	users       []store.User
	deals       []store.Deal
	redemptions []store.Redemption

	failures map[Kind]error
	delay    time.Duration
	calls    map[Kind]int
}

var _ store.DataStore = (*Store)(nil)

func New() *Store {
	return &Store{
		failures: make(map[Kind]error),
		calls:    make(map[Kind]int),
	}
}

func (s *Store) AddPartners(p ...store.Partner) {
	s.mu.Lock()
	s.partners = append(s.partners, p...)
	s.mu.Unlock()
}

func (s *Store) AddUsers(u ...store.User) {
	s.mu.Lock()
	s.users = append(s.users, u...)
	s.mu.Unlock()
}

func (s *Store) AddDeals(d ...store.Deal) {
	s.mu.Lock()
	s.deals = append(s.deals, d...)
	s.mu.Unlock()
}

func (s *Store) AddRedemptions(r ...store.Redemption) {
	s.mu.Lock()
	s.redemptions = append(s.redemptions, r...)
	s.mu.Unlock()
}

// Fail makes every query on kind return err until cleared with a nil err.
func (s *Store) Fail(kind Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, kind)
		return
	}
	s.failures[kind] = err
}

// SetDelay adds latency to every query, honouring context cancellation.
func (s *Store) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Calls returns how many queries hit kind.
func (s *Store) Calls(kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[kind]
}

func (s *Store) begin(ctx context.Context, kind Kind) error {
	s.mu.Lock()
	s.calls[kind]++
	err := s.failures[kind]
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Store) ListPartners(ctx context.Context, f store.PartnerFilter) ([]store.Partner, error) {
	if err := s.begin(ctx, KindPartners); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Partner, 0, len(s.partners))
	for _, p := range s.partners {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) CountPartners(ctx context.Context, f store.PartnerFilter) (int, error) {
	partners, err := s.ListPartners(ctx, f)
	return len(partners), err
}

func (s *Store) ListUsers(ctx context.Context, f store.UserFilter) ([]store.User, error) {
	if err := s.begin(ctx, KindUsers); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.User, 0, len(s.users))
	for _, u := range s.users {
		if !f.CreatedFrom.IsZero() && u.CreatedAt.Before(f.CreatedFrom) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) CountUsers(ctx context.Context, f store.UserFilter) (int, error) {
	users, err := s.ListUsers(ctx, f)
	return len(users), err
}

func (s *Store) ListDeals(ctx context.Context, f store.DealFilter) ([]store.Deal, error) {
	if err := s.begin(ctx, KindDeals); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		if f.PartnerIDs != nil && !slices.Contains(f.PartnerIDs, d.PartnerID) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) CountDeals(ctx context.Context, f store.DealFilter) (int, error) {
	deals, err := s.ListDeals(ctx, f)
	return len(deals), err
}

func (s *Store) ListRedemptions(ctx context.Context, f store.RedemptionFilter) ([]store.Redemption, error) {
	if err := s.begin(ctx, KindRedemptions); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Redemption, 0, len(s.redemptions))
	for _, r := range s.redemptions {
		if f.PartnerIDs != nil && !slices.Contains(f.PartnerIDs, r.PartnerID) {
			continue
		}
		if !f.From.IsZero() && r.RedeemedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.RedeemedAt.After(f.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) CountRedemptions(ctx context.Context, f store.RedemptionFilter) (int, error) {
	redemptions, err := s.ListRedemptions(ctx, f)
	return len(redemptions), err
}

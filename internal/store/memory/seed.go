package memory

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"perkhub-analytics/internal/store"
)

var seedNamespace = uuid.MustParse("6f1c2b9e-52d4-4c71-9a0e-3d8f7b1e2a60")

// SeedID returns a stable id for a fixture name.
func SeedID(name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(name)).String()
}

var (
	seedCategories = []string{"food", "fitness", "retail", "travel", "wellness"}
	seedStatuses   = []string{store.PartnerApproved, store.PartnerApproved, store.PartnerApproved, store.PartnerPending, store.PartnerRejected}
)

// SeedOptions sizes the demo fixture set.
type SeedOptions struct {
	Partners         int
	Users            int
	DealsPerPartner  int
	RedemptionsTotal int
	Days             int
	RandSeed         uint64
}

// Seed fills s with a deterministic, plausible data set anchored at now.
func Seed(s *Store, now time.Time, opts SeedOptions) {
	if opts.Days <= 0 {
		opts.Days = 90
	}
	rng := rand.New(rand.NewPCG(opts.RandSeed, opts.RandSeed^0x9e3779b97f4a7c15))
	span := time.Duration(opts.Days) * 24 * time.Hour

	partners := make([]store.Partner, opts.Partners)
	for i := range partners {
		partners[i] = store.Partner{
			ID:           SeedID(fmt.Sprintf("partner-%d", i)),
			BusinessName: fmt.Sprintf("Partner %03d", i),
			Category:     seedCategories[i%len(seedCategories)],
			Status:       seedStatuses[i%len(seedStatuses)],
			Email:        fmt.Sprintf("partner%03d@example.com", i),
			CreatedAt:    now.Add(-time.Duration(rng.Int64N(int64(span)))),
		}
	}
	s.AddPartners(partners...)

	users := make([]store.User, opts.Users)
	for i := range users {
		role := "member"
		if i == 0 {
			role = "admin"
		}
		users[i] = store.User{
			ID:        SeedID(fmt.Sprintf("user-%d", i)),
			Role:      role,
			CreatedAt: now.Add(-time.Duration(rng.Int64N(int64(span)))),
		}
	}
	s.AddUsers(users...)

	var deals []store.Deal
	for _, p := range partners {
		for j := 0; j < opts.DealsPerPartner; j++ {
			d := store.Deal{
				ID:        SeedID(fmt.Sprintf("%s-deal-%d", p.ID, j)),
				PartnerID: p.ID,
				Title:     fmt.Sprintf("%s offer %d", p.BusinessName, j+1),
				Status:    store.DealActive,
				CreatedAt: p.CreatedAt,
			}
			switch rng.IntN(4) {
			case 0:
				d.Status = store.DealInactive
			case 1:
				end := now.Add(time.Duration(rng.IntN(60)-30) * 24 * time.Hour)
				d.EndDate = &end
			}
			deals = append(deals, d)
		}
	}
	s.AddDeals(deals...)

	if len(deals) == 0 || len(users) == 0 {
		return
	}

	redemptions := make([]store.Redemption, opts.RedemptionsTotal)
	for i := range redemptions {
		d := deals[rng.IntN(len(deals))]
		original := decimal.NewFromInt(int64(10 + rng.IntN(190)))
		discount := original.Mul(decimal.NewFromInt(int64(5 + rng.IntN(40)))).Div(decimal.NewFromInt(100)).Round(2)
		redemptions[i] = store.Redemption{
			ID:             SeedID(fmt.Sprintf("redemption-%d", i)),
			DealID:         d.ID,
			PartnerID:      d.PartnerID,
			UserID:         users[rng.IntN(len(users))].ID,
			RedeemedAt:     now.Add(-time.Duration(rng.Int64N(int64(span)))),
			DiscountAmount: discount,
			OriginalAmount: original,
			FinalAmount:    original.Sub(discount),
		}
	}
	s.AddRedemptions(redemptions...)
}

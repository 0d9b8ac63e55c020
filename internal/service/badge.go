package service

import (
	"context"
	"log/slog"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
)

// DefaultBadgeTiers is ordered highest priority first.
var DefaultBadgeTiers = []domain.BadgeTier{
	{Name: config.BadgeMemelord, Threshold: 100000, BonusSats: 100000},
	{Name: config.BadgeBasedMemer, Threshold: 50000, BonusSats: 50000},
	{Name: config.BadgeNormie, Threshold: 10000, Exact: true},
}

type badgeHolder interface {
	AwardBadge(ctx context.Context, userID int64, badge string) bool
}

// BadgeService awards at most one tier per evaluation. A total that jumps
// over an intermediate tier only earns the highest unheld match.
type BadgeService struct {
	tiers  []domain.BadgeTier
	ledger badgeHolder
}

func NewBadgeService(ledger badgeHolder, tiers []domain.BadgeTier) *BadgeService {
	if tiers == nil {
		tiers = DefaultBadgeTiers
	}
	return &BadgeService{tiers: tiers, ledger: ledger}
}

// Evaluate checks total against the tiers top-down and awards the first one
// that matches and is not held yet.
func (s *BadgeService) Evaluate(ctx context.Context, userID int64, total int64) (domain.BadgeAward, bool) {
	for _, tier := range s.tiers {
		if !tier.Matches(total) {
			continue
		}
		if !s.ledger.AwardBadge(ctx, userID, tier.Name) {
			continue
		}
		slog.InfoContext(ctx, "badge tier reached",
			"user_id", userID,
			"badge", tier.Name,
			"total", total,
			"bonus", tier.BonusSats,
		)
		badgesAwarded.WithLabelValues(tier.Name).Inc()
		return domain.BadgeAward{Tier: tier}, true
	}
	return domain.BadgeAward{}, false
}

package domain

type LedgerEntry struct {
	UserID    int64
	TotalSats int64
	Badges    []string
}

func (e LedgerEntry) HasBadge(name string) bool {
	for _, b := range e.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// BadgeTier is a milestone on a user's cumulative total. Exact tiers match
// only when the total equals Threshold.
type BadgeTier struct {
	Name      string
	Threshold int64
	Exact     bool
	BonusSats int64
}

func (t BadgeTier) Matches(total int64) bool {
	if t.Exact {
		return total == t.Threshold
	}
	return total >= t.Threshold
}

type BadgeAward struct {
	Tier BadgeTier
}

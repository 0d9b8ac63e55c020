package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/set-night/memelord/internal/domain"
)

type ledgerEntry struct {
	total  int64
	badges []string
}

// LedgerService holds per-user cumulative payout totals and badges in memory.
type LedgerService struct {
	locks *keyedMutex[int64]

	mu      sync.RWMutex
	entries map[int64]*ledgerEntry
}

func NewLedgerService() *LedgerService {
	return &LedgerService{
		locks:   newKeyedMutex[int64](),
		entries: make(map[int64]*ledgerEntry),
	}
}

func (s *LedgerService) entry(userID int64) *ledgerEntry {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[userID]; !ok {
		e = &ledgerEntry{}
		s.entries[userID] = e
	}
	return e
}

// Credit adds amount to the user's total and returns the new total.
func (s *LedgerService) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit user %d: %w", userID, domain.ErrInvalidAmount)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	e := s.entry(userID)
	e.total += amount
	slog.InfoContext(ctx, "ledger credited", "user_id", userID, "amount", amount, "total", e.total)
	return e.total, nil
}

// AwardBadge adds badge to the user's held set. It returns false when the
// badge was already held.
func (s *LedgerService) AwardBadge(ctx context.Context, userID int64, badge string) bool {
	unlock := s.locks.Lock(userID)
	defer unlock()

	e := s.entry(userID)
	if slices.Contains(e.badges, badge) {
		return false
	}
	e.badges = append(e.badges, badge)
	slog.InfoContext(ctx, "badge awarded", "user_id", userID, "badge", badge)
	return true
}

func (s *LedgerService) Get(userID int64) domain.LedgerEntry {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return domain.LedgerEntry{UserID: userID}
	}
	return domain.LedgerEntry{
		UserID:    userID,
		TotalSats: e.total,
		Badges:    slices.Clone(e.badges),
	}
}

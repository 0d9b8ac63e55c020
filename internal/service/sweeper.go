package service

import (
	"context"
	"log/slog"
	"time"
)

// SubmissionSweeper drops pending submissions that never reached the
// reaction threshold. Nobody is notified.
type SubmissionSweeper struct {
	store    *SubmissionStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewSubmissionSweeper(store *SubmissionStore, ttl, interval time.Duration) *SubmissionSweeper {
	return &SubmissionSweeper{store: store, ttl: ttl, interval: interval, now: time.Now}
}

// Run sweeps on every tick until ctx is done.
func (s *SubmissionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, s.now())
		}
	}
}

// Sweep removes every pending submission older than the TTL at now and
// returns how many were removed.
func (s *SubmissionSweeper) Sweep(ctx context.Context, now time.Time) int {
	removed := 0
	for _, id := range s.store.ids() {
		if !s.store.expireIfStale(id, now, s.ttl) {
			continue
		}
		removed++
		submissionsExpired.Inc()
		slog.InfoContext(ctx, "submission expired", "submission_id", id)
	}
	return removed
}

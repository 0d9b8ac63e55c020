package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/memelord/internal/domain"
)

// JournalEntry is one payout attempt, kept for manual reconciliation.
type JournalEntry struct {
	ID        uuid.UUID
	Request   domain.PayoutRequest
	Outcome   domain.PayoutOutcome
	Address   string
	TxID      string
	Error     string
	CreatedAt time.Time
}

// PayoutJournal receives every payout attempt. Implementations must not
// block the payout on their own failures for long; errors are only logged.
type PayoutJournal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

// LogJournal writes journal entries to the structured log only.
type LogJournal struct{}

func (LogJournal) Record(ctx context.Context, e JournalEntry) error {
	slog.InfoContext(ctx, "payout journal",
		"journal_id", e.ID.String(),
		"user_id", e.Request.Owner.UserID,
		"username", e.Request.Owner.Username,
		"amount", e.Request.Amount,
		"reason", e.Request.Reason,
		"ref", e.Request.Ref,
		"outcome", e.Outcome,
		"address", e.Address,
		"tx_id", e.TxID,
		"error", e.Error,
	)
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/set-night/memelord/internal/domain"
	"github.com/set-night/memelord/internal/service"
)

const insertJournalEntry = `
INSERT INTO payout_journal (id, user_id, username, amount_sats, reason, ref, outcome, address, tx_id, error, created_at)
VALUES (@id, @user_id, @username, @amount_sats, @reason, @ref, @outcome, @address, @tx_id, @error, @created_at)`

const listUnsettledEntries = `
SELECT id, user_id, username, amount_sats, reason, ref, outcome, address, tx_id, error, created_at
FROM payout_journal
WHERE outcome <> 'success'
ORDER BY created_at DESC
LIMIT $1`

// JournalRepository persists payout attempts to Postgres.
type JournalRepository struct {
	pool *pgxpool.Pool
}

func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

func (r *JournalRepository) Record(ctx context.Context, e service.JournalEntry) error {
	if _, err := r.pool.Exec(ctx, insertJournalEntry, journalArgs(e)); err != nil {
		return fmt.Errorf("insert payout journal: %w", err)
	}
	return nil
}

// Unsettled returns the most recent failed attempts, newest first.
func (r *JournalRepository) Unsettled(ctx context.Context, limit int) ([]service.JournalEntry, error) {
	rows, err := r.pool.Query(ctx, listUnsettledEntries, limit)
	if err != nil {
		return nil, fmt.Errorf("query payout journal: %w", err)
	}
	defer rows.Close()

	var out []service.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func journalArgs(e service.JournalEntry) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":          e.ID,
		"user_id":     e.Request.Owner.UserID,
		"username":    e.Request.Owner.Username,
		"amount_sats": e.Request.Amount,
		"reason":      string(e.Request.Reason),
		"ref":         e.Request.Ref,
		"outcome":     string(e.Outcome),
		"address":     e.Address,
		"tx_id":       e.TxID,
		"error":       e.Error,
		"created_at":  e.CreatedAt,
	}
}

// scanJournalEntry reads one row in listUnsettledEntries column order.
func scanJournalEntry(row pgx.Row) (service.JournalEntry, error) {
	var (
		e       service.JournalEntry
		reason  string
		outcome string
	)
	if err := row.Scan(
		&e.ID,
		&e.Request.Owner.UserID,
		&e.Request.Owner.Username,
		&e.Request.Amount,
		&reason,
		&e.Request.Ref,
		&outcome,
		&e.Address,
		&e.TxID,
		&e.Error,
		&e.CreatedAt,
	); err != nil {
		return service.JournalEntry{}, fmt.Errorf("scan payout journal: %w", err)
	}
	e.Request.Reason = domain.PayoutReason(reason)
	e.Outcome = domain.PayoutOutcome(outcome)
	return e, nil
}

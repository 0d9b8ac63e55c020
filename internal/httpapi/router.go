package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/set-night/memelord/internal/domain"
	"github.com/set-night/memelord/internal/service"
)

// unsettledLimit bounds the failed payout attempts returned per request.
const unsettledLimit = 100

// LedgerReader exposes per-user totals.
type LedgerReader interface {
	Get(userID int64) domain.LedgerEntry
}

// StuckLister lists submissions waiting for a payout retry.
type StuckLister interface {
	Stuck() []domain.Submission
}

// UnsettledLister lists recent failed payout attempts for reconciliation.
type UnsettledLister interface {
	Unsettled(ctx context.Context, limit int) ([]service.JournalEntry, error)
}

type Config struct {
	Ledger      LedgerReader
	Submissions StuckLister
	// Journal is nil when payouts are only logged, not persisted.
	Journal UnsettledLister
	// Metrics defaults to the process-wide prometheus registry.
	Metrics http.Handler
}

type ledgerResponse struct {
	UserID    int64    `json:"user_id"`
	TotalSats int64    `json:"total_sats"`
	Badges    []string `json:"badges"`
}

type unsettledResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Amount    int64  `json:"amount_sats"`
	Reason    string `json:"reason"`
	Ref       string `json:"ref"`
	Outcome   string `json:"outcome"`
	Address   string `json:"address"`
	Error     string `json:"error"`
	CreatedAt string `json:"created_at"`
}

type stuckResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Reactions int    `json:"reactions"`
	CreatedAt string `json:"created_at"`
}

// NewRouter serves health, metrics and read-only operator views.
func NewRouter(cfg Config) http.Handler {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics)

	r.Route("/v1", func(api chi.Router) {
		api.Get("/ledger/{userID}", func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
			if err != nil {
				http.Error(w, "invalid user id", http.StatusBadRequest)
				return
			}
			entry := cfg.Ledger.Get(userID)
			badges := entry.Badges
			if badges == nil {
				badges = []string{}
			}
			writeJSON(w, ledgerResponse{UserID: userID, TotalSats: entry.TotalSats, Badges: badges})
		})

		api.Get("/submissions/stuck", func(w http.ResponseWriter, r *http.Request) {
			stuck := cfg.Submissions.Stuck()
			out := make([]stuckResponse, 0, len(stuck))
			for _, s := range stuck {
				out = append(out, stuckResponse{
					ID:        string(s.ID),
					UserID:    s.Owner.UserID,
					Username:  s.Owner.Username,
					Reactions: s.ReactionCount,
					CreatedAt: s.CreatedAt.UTC().Format(timeLayout),
				})
			}
			writeJSON(w, out)
		})

		api.Get("/payouts/unsettled", func(w http.ResponseWriter, r *http.Request) {
			if cfg.Journal == nil {
				http.Error(w, "payout journal not persisted", http.StatusServiceUnavailable)
				return
			}
			entries, err := cfg.Journal.Unsettled(r.Context(), unsettledLimit)
			if err != nil {
				slog.ErrorContext(r.Context(), "list unsettled payouts", "error", err)
				http.Error(w, "journal unavailable", http.StatusInternalServerError)
				return
			}
			out := make([]unsettledResponse, 0, len(entries))
			for _, e := range entries {
				out = append(out, unsettledResponse{
					ID:        e.ID.String(),
					UserID:    e.Request.Owner.UserID,
					Username:  e.Request.Owner.Username,
					Amount:    e.Request.Amount,
					Reason:    string(e.Request.Reason),
					Ref:       e.Request.Ref,
					Outcome:   string(e.Outcome),
					Address:   e.Address,
					Error:     e.Error,
					CreatedAt: e.CreatedAt.UTC().Format(timeLayout),
				})
			}
			writeJSON(w, out)
		})
	})
	return r
}

const timeLayout = "2006-01-02T15:04:05Z"

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

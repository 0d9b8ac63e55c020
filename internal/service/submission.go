package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/set-night/memelord/internal/config"
	"github.com/set-night/memelord/internal/domain"
)

type ReactionOutcome int

const (
	ReactionIgnored ReactionOutcome = iota
	ReactionCounted
	ReactionThresholdReached
)

func (o ReactionOutcome) String() string {
	switch o {
	case ReactionCounted:
		return "counted"
	case ReactionThresholdReached:
		return "threshold_reached"
	default:
		return "ignored"
	}
}

// ThresholdHandler runs once a submission moves to payout in flight.
type ThresholdHandler func(ctx context.Context, sub domain.Submission) error

type submissionEntry struct {
	mu            sync.Mutex
	sub           domain.Submission
	removed       bool
	attemptActive bool
}

// SubmissionStore tracks meme submissions and their reactions. Each entry
// has its own lock; the index lock is only held for map access and is
// always taken after an entry lock, never before.
type SubmissionStore struct {
	threshold int
	allowed   []string
	now       func() time.Time

	mu      sync.RWMutex
	entries map[domain.SubmissionID]*submissionEntry

	handlerMu   sync.RWMutex
	onThreshold ThresholdHandler
	inflight    sync.WaitGroup
}

// StoreOption customises the submission store.
type StoreOption func(*SubmissionStore)

// WithStoreClock sets the clock used to stamp new submissions.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *SubmissionStore) { s.now = now }
}

// WithAllowedExtensions overrides the image extension allow-list.
func WithAllowedExtensions(exts []string) StoreOption {
	return func(s *SubmissionStore) { s.allowed = exts }
}

func NewSubmissionStore(threshold int, opts ...StoreOption) *SubmissionStore {
	s := &SubmissionStore{
		threshold: threshold,
		allowed:   config.ImageExtensions,
		now:       time.Now,
		entries:   make(map[domain.SubmissionID]*submissionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnThreshold sets the handler dispatched when a submission crosses the
// reaction threshold.
func (s *SubmissionStore) OnThreshold(h ThresholdHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.onThreshold = h
}

// Submit registers a pending submission.
func (s *SubmissionStore) Submit(ctx context.Context, id domain.SubmissionID, owner domain.Owner, content domain.ContentRef) (domain.SubmissionID, error) {
	if !domain.IsImageName(content.FileName, s.allowed) {
		return "", fmt.Errorf("submit %q: %w", content.FileName, domain.ErrUnsupportedFile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return "", fmt.Errorf("submit %s: %w", id, domain.ErrDuplicateID)
	}
	s.entries[id] = &submissionEntry{
		sub: domain.Submission{
			ID:        id,
			Owner:     owner,
			Content:   content,
			CreatedAt: s.now(),
			Reactors:  make(map[int64]struct{}),
			State:     domain.SubmissionPending,
		},
	}

	slog.InfoContext(ctx, "submission created",
		"submission_id", id,
		"user_id", owner.UserID,
		"username", owner.Username,
		"file", content.FileName,
	)
	return id, nil
}

// RecordReaction counts userID once for a pending submission. Crossing the
// threshold moves the submission to payout in flight exactly once and
// dispatches the threshold handler without waiting for it.
func (s *SubmissionStore) RecordReaction(ctx context.Context, id domain.SubmissionID, userID int64) ReactionOutcome {
	outcome := s.recordReaction(ctx, id, userID)
	reactionsTotal.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (s *SubmissionStore) recordReaction(ctx context.Context, id domain.SubmissionID, userID int64) ReactionOutcome {
	e := s.lookup(id)
	if e == nil {
		return ReactionIgnored
	}

	e.mu.Lock()
	if e.removed || e.sub.State != domain.SubmissionPending {
		e.mu.Unlock()
		return ReactionIgnored
	}
	if _, seen := e.sub.Reactors[userID]; seen {
		e.mu.Unlock()
		return ReactionIgnored
	}
	e.sub.Reactors[userID] = struct{}{}
	e.sub.ReactionCount++
	count := e.sub.ReactionCount

	if count < s.threshold {
		e.mu.Unlock()
		slog.DebugContext(ctx, "reaction counted", "submission_id", id, "user_id", userID, "count", count)
		return ReactionCounted
	}

	e.sub.State = domain.SubmissionPayoutInFlight
	e.attemptActive = true
	snap := e.sub.Clone()
	e.mu.Unlock()

	slog.InfoContext(ctx, "reaction threshold reached",
		"submission_id", id,
		"user_id", snap.Owner.UserID,
		"count", count,
	)
	s.dispatch(ctx, e, snap)
	return ReactionThresholdReached
}

// RetryPayout re-dispatches the threshold handler for a submission whose
// payout failed. Only one attempt per submission runs at a time.
func (s *SubmissionStore) RetryPayout(ctx context.Context, id domain.SubmissionID) error {
	e := s.lookup(id)
	if e == nil {
		return fmt.Errorf("retry %s: %w", id, domain.ErrSubmissionNotFound)
	}

	e.mu.Lock()
	if e.sub.State != domain.SubmissionPayoutInFlight {
		state := e.sub.State
		e.mu.Unlock()
		return fmt.Errorf("retry %s in state %s: %w", id, state, domain.ErrInvalidTransition)
	}
	if e.attemptActive {
		e.mu.Unlock()
		return fmt.Errorf("retry %s: %w", id, domain.ErrPayoutInProgress)
	}
	e.attemptActive = true
	snap := e.sub.Clone()
	e.mu.Unlock()

	slog.InfoContext(ctx, "submission payout retry", "submission_id", id, "user_id", snap.Owner.UserID)
	s.dispatch(ctx, e, snap)
	return nil
}

// MarkRewarded completes the payout in flight -> rewarded transition.
func (s *SubmissionStore) MarkRewarded(id domain.SubmissionID) error {
	e := s.lookup(id)
	if e == nil {
		return fmt.Errorf("mark rewarded %s: %w", id, domain.ErrSubmissionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sub.State != domain.SubmissionPayoutInFlight {
		return fmt.Errorf("mark rewarded %s from %s: %w", id, e.sub.State, domain.ErrInvalidTransition)
	}
	e.sub.State = domain.SubmissionRewarded
	return nil
}

func (s *SubmissionStore) Get(id domain.SubmissionID) (domain.Submission, error) {
	e := s.lookup(id)
	if e == nil {
		return domain.Submission{}, fmt.Errorf("get %s: %w", id, domain.ErrSubmissionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.Submission{}, fmt.Errorf("get %s: %w", id, domain.ErrSubmissionNotFound)
	}
	return e.sub.Clone(), nil
}

// Stuck lists submissions whose payout is in flight with no attempt running.
func (s *SubmissionStore) Stuck() []domain.Submission {
	var out []domain.Submission
	for _, id := range s.ids() {
		e := s.lookup(id)
		if e == nil {
			continue
		}
		e.mu.Lock()
		if !e.removed && e.sub.State == domain.SubmissionPayoutInFlight && !e.attemptActive {
			out = append(out, e.sub.Clone())
		}
		e.mu.Unlock()
	}
	return out
}

// Wait blocks until every dispatched threshold handler has returned.
func (s *SubmissionStore) Wait() {
	s.inflight.Wait()
}

// expireIfStale removes the submission when it is still pending and older
// than ttl. The entry lock is taken before age is inspected so a racing
// reaction always wins.
func (s *SubmissionStore) expireIfStale(id domain.SubmissionID, now time.Time, ttl time.Duration) bool {
	e := s.lookup(id)
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || e.sub.State != domain.SubmissionPending || now.Sub(e.sub.CreatedAt) <= ttl {
		return false
	}
	e.removed = true
	e.sub.State = domain.SubmissionExpired

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return true
}

func (s *SubmissionStore) dispatch(ctx context.Context, e *submissionEntry, snap domain.Submission) {
	s.handlerMu.RLock()
	handler := s.onThreshold
	s.handlerMu.RUnlock()

	if handler == nil {
		slog.WarnContext(ctx, "no threshold handler, submission left in flight", "submission_id", snap.ID)
		e.mu.Lock()
		e.attemptActive = false
		e.mu.Unlock()
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		err := handler(ctx, snap)

		e.mu.Lock()
		e.attemptActive = false
		e.mu.Unlock()

		if err != nil {
			slog.ErrorContext(ctx, "threshold handler failed", "submission_id", snap.ID, "error", err)
		}
	}()
}

func (s *SubmissionStore) lookup(id domain.SubmissionID) *submissionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

func (s *SubmissionStore) ids() []domain.SubmissionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]domain.SubmissionID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

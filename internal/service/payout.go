package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/memelord/internal/domain"
)

// AddressDirectory maps a chat username onto a payment address.
type AddressDirectory interface {
	ResolveAddress(ctx context.Context, username string) (string, error)
}

// PaymentProvider signs and broadcasts a payment. Calls are never retried
// here since a retry may pay twice.
type PaymentProvider interface {
	Submit(ctx context.Context, address string, amountSats int64) (string, error)
}

// RewardAnnouncer is told how an asynchronous submission payout ended.
type RewardAnnouncer interface {
	SubmissionRewarded(ctx context.Context, sub domain.Submission, res domain.PayoutResult)
	SubmissionPayoutFailed(ctx context.Context, sub domain.Submission, err error)
}

type submissionAdvancer interface {
	MarkRewarded(id domain.SubmissionID) error
}

type ledgerCreditor interface {
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)
}

type badgeEvaluator interface {
	Evaluate(ctx context.Context, userID int64, total int64) (domain.BadgeAward, bool)
}

type nopAnnouncer struct{}

func (nopAnnouncer) SubmissionRewarded(context.Context, domain.Submission, domain.PayoutResult) {}
func (nopAnnouncer) SubmissionPayoutFailed(context.Context, domain.Submission, error)           {}

// PayoutService resolves addresses, pays, and credits the ledger.
type PayoutService struct {
	directory   AddressDirectory
	payments    PaymentProvider
	ledger      ledgerCreditor
	badges      badgeEvaluator
	journal     PayoutJournal
	submissions submissionAdvancer
	announcer   RewardAnnouncer
	rewardSats  int64
	now         func() time.Time
}

// PayoutOption customises the payout service.
type PayoutOption func(*PayoutService)

// WithJournal sets where payout attempts are recorded.
func WithJournal(j PayoutJournal) PayoutOption {
	return func(s *PayoutService) { s.journal = j }
}

// WithSubmissions lets submission payouts advance their submission to rewarded.
func WithSubmissions(store submissionAdvancer) PayoutOption {
	return func(s *PayoutService) { s.submissions = store }
}

// WithAnnouncer sets the receiver of submission payout outcomes.
func WithAnnouncer(a RewardAnnouncer) PayoutOption {
	return func(s *PayoutService) { s.announcer = a }
}

// WithSubmissionReward overrides the sats paid per rewarded submission.
func WithSubmissionReward(sats int64) PayoutOption {
	return func(s *PayoutService) { s.rewardSats = sats }
}

// WithPayoutClock sets the clock used for journal timestamps.
func WithPayoutClock(now func() time.Time) PayoutOption {
	return func(s *PayoutService) { s.now = now }
}

func NewPayoutService(directory AddressDirectory, payments PaymentProvider, ledger ledgerCreditor, badges badgeEvaluator, opts ...PayoutOption) *PayoutService {
	s := &PayoutService{
		directory:  directory,
		payments:   payments,
		ledger:     ledger,
		badges:     badges,
		journal:    LogJournal{},
		announcer:  nopAnnouncer{},
		rewardSats: 10000,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Payout pays req.Amount to the owner, credits the ledger and evaluates
// badges. A reached tier with a bonus triggers a second payment.
func (s *PayoutService) Payout(ctx context.Context, req domain.PayoutRequest) (domain.PayoutResult, error) {
	return s.payout(ctx, req, nil)
}

// RewardSubmission is the threshold handler for submissions. On failure the
// submission stays in flight until an operator retries it.
func (s *PayoutService) RewardSubmission(ctx context.Context, sub domain.Submission) error {
	req := domain.PayoutRequest{
		Owner:  sub.Owner,
		Amount: s.rewardSats,
		Reason: domain.PayoutReasonSubmission,
		Ref:    string(sub.ID),
	}

	res, err := s.payout(ctx, req, func() error {
		if s.submissions == nil {
			return nil
		}
		return s.submissions.MarkRewarded(sub.ID)
	})
	if err != nil {
		slog.WarnContext(ctx, "submission payout failed, left in flight",
			"submission_id", sub.ID,
			"user_id", sub.Owner.UserID,
			"amount", req.Amount,
			"error", err,
		)
		s.announcer.SubmissionPayoutFailed(ctx, sub, err)
		return err
	}

	s.announcer.SubmissionRewarded(ctx, sub, res)
	return nil
}

func (s *PayoutService) payout(ctx context.Context, req domain.PayoutRequest, onPaid func() error) (domain.PayoutResult, error) {
	if req.Amount <= 0 {
		return domain.PayoutResult{}, fmt.Errorf("payout %s: %w", req.Ref, domain.ErrInvalidAmount)
	}

	start := s.now()
	address, err := s.resolve(ctx, req)
	if err != nil {
		payoutLatency.WithLabelValues(string(req.Reason)).Observe(time.Since(start).Seconds())
		return domain.PayoutResult{}, err
	}
	txID, err := s.submit(ctx, req, address)
	payoutLatency.WithLabelValues(string(req.Reason)).Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.PayoutResult{Address: address}, err
	}

	res := domain.PayoutResult{TxID: txID, Address: address, Amount: req.Amount}

	if onPaid != nil {
		if err := onPaid(); err != nil {
			// The money is gone already, so the ledger is still credited.
			slog.ErrorContext(ctx, "advance after payout",
				"ref", req.Ref,
				"tx_id", txID,
				"error", err,
			)
		}
	}

	userID := req.Owner.UserID
	total, err := s.ledger.Credit(ctx, userID, req.Amount)
	if err != nil {
		return res, fmt.Errorf("credit ledger: %w", err)
	}
	res.TotalSats = total

	award, ok := s.badges.Evaluate(ctx, userID, total)
	if !ok {
		return res, nil
	}
	res.Badge = &award
	if award.Tier.BonusSats <= 0 {
		return res, nil
	}

	// The bonus is credited up front and never rolled back; a failed bonus
	// payment leaves ledger and wallet out of step for manual reconciliation.
	total, err = s.ledger.Credit(ctx, userID, award.Tier.BonusSats)
	if err != nil {
		return res, fmt.Errorf("credit bonus: %w", err)
	}
	res.TotalSats = total

	bonusReq := domain.PayoutRequest{
		Owner:  req.Owner,
		Amount: award.Tier.BonusSats,
		Reason: domain.PayoutReasonBonus,
		Ref:    award.Tier.Name,
	}
	bonusTx, err := s.submit(ctx, bonusReq, address)
	if err != nil {
		res.BonusError = err
		slog.ErrorContext(ctx, "bonus payout failed, ledger diverges from wallet",
			"user_id", userID,
			"badge", award.Tier.Name,
			"amount", award.Tier.BonusSats,
			"ledger_total", total,
			"error", err,
		)
		return res, nil
	}
	res.BonusTxID = bonusTx
	return res, nil
}

func (s *PayoutService) resolve(ctx context.Context, req domain.PayoutRequest) (string, error) {
	address, err := s.directory.ResolveAddress(ctx, req.Owner.Username)
	if err == nil && address == "" {
		err = domain.ErrNotFound
	}
	if err != nil {
		err = fmt.Errorf("%w: user %q: %w", domain.ErrAddressUnresolved, req.Owner.Username, err)
		s.record(ctx, req, domain.PayoutOutcomeAddressUnresolved, "", "", err)
		return "", err
	}
	return address, nil
}

func (s *PayoutService) submit(ctx context.Context, req domain.PayoutRequest, address string) (string, error) {
	txID, err := s.payments.Submit(ctx, address, req.Amount)
	if err == nil && txID == "" {
		err = errors.New("empty transaction id")
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPaymentFailed, err)
		s.record(ctx, req, domain.PayoutOutcomePaymentFailed, address, "", err)
		return "", err
	}
	s.record(ctx, req, domain.PayoutOutcomeSuccess, address, txID, nil)
	payoutSats.WithLabelValues(string(req.Reason)).Add(float64(req.Amount))
	return txID, nil
}

func (s *PayoutService) record(ctx context.Context, req domain.PayoutRequest, outcome domain.PayoutOutcome, address, txID string, err error) {
	payoutsTotal.WithLabelValues(string(req.Reason), string(outcome)).Inc()

	entry := JournalEntry{
		ID:        uuid.New(),
		Request:   req,
		Outcome:   outcome,
		Address:   address,
		TxID:      txID,
		CreatedAt: s.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if jerr := s.journal.Record(ctx, entry); jerr != nil {
		slog.ErrorContext(ctx, "record payout journal", "error", jerr, "ref", req.Ref, "outcome", outcome)
	}
}

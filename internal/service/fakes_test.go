package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/set-night/memelord/internal/domain"
)

type fakeDirectory struct {
	mu        sync.Mutex
	addresses map[string]string
	err       error
	calls     int
}

func (f *fakeDirectory) ResolveAddress(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	addr, ok := f.addresses[username]
	if !ok {
		return "", domain.ErrNotFound
	}
	return addr, nil
}

type payment struct {
	Address string
	Amount  int64
}

type fakePayments struct {
	mu       sync.Mutex
	payments []payment
	// failOn makes the n-th call (1-based) fail; failAll fails every call.
	failOn  map[int]bool
	failAll bool
	calls   int
}

func (f *fakePayments) Submit(_ context.Context, address string, amount int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAll || f.failOn[f.calls] {
		return "", errors.New("broadcast rejected")
	}
	f.payments = append(f.payments, payment{Address: address, Amount: amount})
	return fmt.Sprintf("tx-%d", f.calls), nil
}

func (f *fakePayments) setFailAll(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = v
}

func (f *fakePayments) paid() []payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]payment(nil), f.payments...)
}

type fakeRegistrar struct {
	mu      sync.Mutex
	created []string
	fail    map[string]bool
}

func (f *fakeRegistrar) CreateAsset(_ context.Context, name string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[name] {
		return "", errors.New("sticker set full")
	}
	f.created = append(f.created, name)
	return "asset-" + name, nil
}

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type recordingAnnouncer struct {
	mu       sync.Mutex
	rewarded []domain.PayoutResult
	failed   []error
}

func (a *recordingAnnouncer) SubmissionRewarded(_ context.Context, _ domain.Submission, res domain.PayoutResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rewarded = append(a.rewarded, res)
}

func (a *recordingAnnouncer) SubmissionPayoutFailed(_ context.Context, _ domain.Submission, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed = append(a.failed, err)
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []JournalEntry
}

func (j *memoryJournal) Record(_ context.Context, e JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memoryJournal) outcomes() []domain.PayoutOutcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.PayoutOutcome, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.Outcome
	}
	return out
}

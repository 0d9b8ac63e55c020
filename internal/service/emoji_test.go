package service

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/set-night/memelord/internal/domain"
)

const reviewChat = int64(-500)

func buildZip(t *testing.T, files map[string]int) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, size := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if size > 0 {
			_, err = w.Write(bytes.Repeat([]byte{0x89}, size))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type emojiFixture struct {
	registrar *fakeRegistrar
	payments  *fakePayments
	notifier  *fakeNotifier
	ledger    *LedgerService
	emojis    *EmojiService
}

func newEmojiFixture() *emojiFixture {
	f := &emojiFixture{
		registrar: &fakeRegistrar{},
		payments:  &fakePayments{},
		notifier:  &fakeNotifier{},
		ledger:    NewLedgerService(),
	}
	payouts := NewPayoutService(
		&fakeDirectory{addresses: map[string]string{"alice": "1Alice"}},
		f.payments, f.ledger, NewBadgeService(f.ledger, nil),
	)
	f.emojis = NewEmojiService(f.registrar, payouts, f.notifier, EmojiConfig{
		UnitPriceSats: 1500,
		MaxAssetBytes: 256 * 1024,
		ReviewChatID:  reviewChat,
	})
	return f
}

func names(assets []domain.EmojiAsset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Name
	}
	return out
}

func TestEmojiSubmitFiltersEntries(t *testing.T) {
	f := newEmojiFixture()
	archive := buildZip(t, map[string]int{
		"__MACOSX/._pepe.png": 10,
		".DS_Store":           10,
		"art/.hidden.png":     10,
		"pepe.png":            10,
		"readme.txt":          10,
	})

	added, err := f.emojis.Submit(context.Background(), alice, archive, 77)
	require.NoError(t, err)
	require.Equal(t, 1, added)
	require.Equal(t, []string{"pepe.png"}, names(f.emojis.List(alice.UserID)))

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, reviewChat, msgs[0].ChatID)
}

func TestEmojiSubmitAppends(t *testing.T) {
	f := newEmojiFixture()
	ctx := context.Background()

	_, err := f.emojis.Submit(ctx, alice, buildZip(t, map[string]int{"a.png": 10}), 77)
	require.NoError(t, err)
	_, err = f.emojis.Submit(ctx, alice, buildZip(t, map[string]int{"b.gif": 10}), 77)
	require.NoError(t, err)

	require.Equal(t, []string{"a.png", "b.gif"}, names(f.emojis.List(alice.UserID)))
}

func TestEmojiSubmitRejectsMalformedArchive(t *testing.T) {
	f := newEmojiFixture()

	_, err := f.emojis.Submit(context.Background(), alice, []byte("not a zip"), 77)
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Empty(t, f.emojis.List(alice.UserID))
	require.Empty(t, f.notifier.messages())
}

func TestEmojiListIsReadOnly(t *testing.T) {
	f := newEmojiFixture()
	_, err := f.emojis.Submit(context.Background(), alice, buildZip(t, map[string]int{"a.png": 4}), 77)
	require.NoError(t, err)

	listed := f.emojis.List(alice.UserID)
	listed[0].Name = "tampered"
	listed[0].Data[0] = 0

	again := f.emojis.List(alice.UserID)
	require.Equal(t, "a.png", again[0].Name)
	require.Equal(t, byte(0x89), again[0].Data[0])
}

func TestEmojiApproveSkipsOversizedAsset(t *testing.T) {
	f := newEmojiFixture()
	ctx := context.Background()
	_, err := f.emojis.Submit(ctx, alice, buildZip(t, map[string]int{
		"huge.png":  300 * 1024,
		"small.png": 10 * 1024,
	}), 77)
	require.NoError(t, err)

	res, err := f.emojis.Approve(ctx, alice.UserID)
	require.NoError(t, err)
	require.Equal(t, 1, res.ApprovedCount)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "huge.png", res.Errors[0].Name)
	require.ErrorIs(t, res.Errors[0], domain.ErrAssetTooLarge)
	require.Equal(t, []string{"small"}, f.registrar.created)

	require.Equal(t, int64(1500), res.AmountSats)
	require.NotNil(t, res.Payout)
	require.Equal(t, alice, res.Owner)
	require.Empty(t, f.emojis.List(alice.UserID))
	require.Zero(t, f.emojis.Pending(alice.UserID))
}

func TestEmojiRegistrationFailureDoesNotAbortBatch(t *testing.T) {
	f := newEmojiFixture()
	f.registrar.fail = map[string]bool{"broken": true}
	ctx := context.Background()
	_, err := f.emojis.Submit(ctx, alice, buildZip(t, map[string]int{"broken.png": 10, "fine.png": 10}), 77)
	require.NoError(t, err)

	res, err := f.emojis.Approve(ctx, alice.UserID)
	require.NoError(t, err)
	require.Equal(t, 1, res.ApprovedCount)
	require.Len(t, res.Errors, 1)
	require.ErrorIs(t, res.Errors[0], domain.ErrExternalCall)
	require.Empty(t, f.emojis.List(alice.UserID), "queue is cleared even with failures")
}

func TestEmojiCounterSurvivesFailedPayout(t *testing.T) {
	f := newEmojiFixture()
	ctx := context.Background()

	_, err := f.emojis.Submit(ctx, alice, buildZip(t, map[string]int{"a.png": 10, "b.png": 10}), 77)
	require.NoError(t, err)
	f.payments.setFailAll(true)

	res, err := f.emojis.Approve(ctx, alice.UserID)
	require.NoError(t, err)
	require.Equal(t, 2, res.ApprovedCount)
	require.Equal(t, int64(3000), res.AmountSats)
	require.ErrorIs(t, res.PayoutErr, domain.ErrPaymentFailed)
	require.Equal(t, 2, f.emojis.Pending(alice.UserID))

	f.payments.setFailAll(false)
	_, err = f.emojis.Submit(ctx, alice, buildZip(t, map[string]int{"c.png": 10}), 77)
	require.NoError(t, err)

	res, err = f.emojis.Approve(ctx, alice.UserID)
	require.NoError(t, err)
	require.Equal(t, 1, res.ApprovedCount)
	require.Equal(t, int64(4500), res.AmountSats)
	require.NotNil(t, res.Payout)
	require.Equal(t, []payment{{Address: "1Alice", Amount: 4500}}, f.payments.paid())
	require.Zero(t, f.emojis.Pending(alice.UserID))
	require.Equal(t, int64(4500), f.ledger.Get(alice.UserID).TotalSats)
}

func TestEmojiRejectClearsWithoutPayout(t *testing.T) {
	f := newEmojiFixture()
	ctx := context.Background()
	_, err := f.emojis.Submit(ctx, alice, buildZip(t, map[string]int{"a.png": 10}), 77)
	require.NoError(t, err)

	require.NoError(t, f.emojis.Reject(ctx, alice.UserID))
	require.Empty(t, f.emojis.List(alice.UserID))
	require.Empty(t, f.payments.paid())

	msgs := f.notifier.messages()
	require.Equal(t, int64(77), msgs[len(msgs)-1].ChatID)

	require.ErrorIs(t, f.emojis.Reject(ctx, alice.UserID), domain.ErrBatchNotFound)
}

func TestEmojiApproveWithoutBatch(t *testing.T) {
	f := newEmojiFixture()

	_, err := f.emojis.Approve(context.Background(), alice.UserID)
	require.ErrorIs(t, err, domain.ErrBatchNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

type fakeReviewNotifier struct {
	fakeNotifier
	reviews []int64
}

func (f *fakeReviewNotifier) RequestReview(_ context.Context, chatID, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, userID)
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func newCappedEmojiService(notifier Notifier, archiveBytes, queuedBytes int64) *EmojiService {
	return NewEmojiService(&fakeRegistrar{}, nil, notifier, EmojiConfig{
		MaxArchiveBytes: archiveBytes,
		MaxQueuedBytes:  queuedBytes,
		ReviewChatID:    reviewChat,
	})
}

func TestEmojiSubmitRejectsArchiveOverDecompressedBudget(t *testing.T) {
	notifier := &fakeNotifier{}
	emojis := newCappedEmojiService(notifier, 1000, 1<<20)
	archive := buildZip(t, map[string]int{"a.png": 600, "b.png": 600})

	_, err := emojis.Submit(context.Background(), alice, archive, 77)
	require.ErrorIs(t, err, domain.ErrMalformedArchive)
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Empty(t, emojis.List(alice.UserID))
	require.Empty(t, notifier.messages())

	added, err := emojis.Submit(context.Background(), alice, buildZip(t, map[string]int{"a.png": 600}), 77)
	require.NoError(t, err)
	require.Equal(t, 1, added)
}

func TestEmojiSubmitCapsQueuedBytesPerUser(t *testing.T) {
	emojis := newCappedEmojiService(&fakeNotifier{}, 1<<20, 1000)
	ctx := context.Background()

	_, err := emojis.Submit(ctx, alice, buildZip(t, map[string]int{"a.png": 600}), 77)
	require.NoError(t, err)

	_, err = emojis.Submit(ctx, alice, buildZip(t, map[string]int{"b.png": 600}), 77)
	require.ErrorIs(t, err, domain.ErrQueueFull)
	require.Equal(t, []string{"a.png"}, names(emojis.List(alice.UserID)))

	// The cap is per user.
	bob := domain.Owner{UserID: 2, Username: "bob"}
	_, err = emojis.Submit(ctx, bob, buildZip(t, map[string]int{"b.png": 600}), 77)
	require.NoError(t, err)
}

func TestEmojiSubmitRequestsReviewOnce(t *testing.T) {
	notifier := &fakeReviewNotifier{}
	emojis := newCappedEmojiService(notifier, 0, 0)

	_, err := emojis.Submit(context.Background(), alice, buildZip(t, map[string]int{"a.png": 10}), 77)
	require.NoError(t, err)

	require.Equal(t, []int64{alice.UserID}, notifier.reviews)
	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, reviewChat, msgs[0].ChatID)
}

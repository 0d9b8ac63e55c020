package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/set-night/memelord/internal/domain"
)

func TestSweepRemovesOnlyStalePending(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := t0
	store := NewSubmissionStore(1, WithStoreClock(func() time.Time { return clock }))
	store.OnThreshold(func(context.Context, domain.Submission) error { return nil })
	ctx := context.Background()

	_, err := store.Submit(ctx, "old", alice, memeContent())
	require.NoError(t, err)
	_, err = store.Submit(ctx, "rewarded", alice, memeContent())
	require.NoError(t, err)
	require.Equal(t, ReactionThresholdReached, store.RecordReaction(ctx, "rewarded", 9))
	store.Wait()
	require.NoError(t, store.MarkRewarded("rewarded"))

	clock = t0.Add(2 * time.Hour)
	_, err = store.Submit(ctx, "young", alice, memeContent())
	require.NoError(t, err)

	sweeper := NewSubmissionSweeper(store, 24*time.Hour, time.Minute)
	removed := sweeper.Sweep(ctx, t0.Add(25*time.Hour))
	require.Equal(t, 1, removed)

	_, err = store.Get("old")
	require.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	// 23h old at sweep time.
	young, err := store.Get("young")
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionPending, young.State)

	rewarded, err := store.Get("rewarded")
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionRewarded, rewarded.State)

	// Once "young" is 25h old it goes too; rewarded stays regardless of age.
	require.Equal(t, 1, sweeper.Sweep(ctx, t0.Add(27*time.Hour)))
	require.Zero(t, sweeper.Sweep(ctx, t0.Add(1000*time.Hour)))

	rewarded, err = store.Get("rewarded")
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionRewarded, rewarded.State)
}

func TestSweepNeverRemovesInFlight(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewSubmissionStore(1, WithStoreClock(func() time.Time { return t0 }))
	store.OnThreshold(func(context.Context, domain.Submission) error { return nil })
	ctx := context.Background()

	_, err := store.Submit(ctx, "42", alice, memeContent())
	require.NoError(t, err)
	store.RecordReaction(ctx, "42", 5)
	store.Wait()

	sweeper := NewSubmissionSweeper(store, 24*time.Hour, time.Minute)
	require.Zero(t, sweeper.Sweep(ctx, t0.Add(48*time.Hour)))

	sub, err := store.Get("42")
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionPayoutInFlight, sub.State)
}

func TestReactionAfterExpiryIsIgnored(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewSubmissionStore(10, WithStoreClock(func() time.Time { return t0 }))
	ctx := context.Background()
	_, err := store.Submit(ctx, "42", alice, memeContent())
	require.NoError(t, err)

	NewSubmissionSweeper(store, 24*time.Hour, time.Minute).Sweep(ctx, t0.Add(25*time.Hour))

	require.Equal(t, ReactionIgnored, store.RecordReaction(ctx, "42", 100))
}

func TestSweepWaitsForEntryLockAndLosesToReaction(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewSubmissionStore(1, WithStoreClock(func() time.Time { return t0 }))
	ctx := context.Background()
	_, err := store.Submit(ctx, "42", alice, memeContent())
	require.NoError(t, err)

	e := store.lookup("42")
	require.NotNil(t, e)
	e.mu.Lock()

	sweeper := NewSubmissionSweeper(store, 24*time.Hour, time.Minute)
	done := make(chan int, 1)
	go func() { done <- sweeper.Sweep(ctx, t0.Add(25*time.Hour)) }()

	select {
	case n := <-done:
		e.mu.Unlock()
		t.Fatalf("sweep finished while the entry was locked, removed %d", n)
	case <-time.After(50 * time.Millisecond):
	}

	// Threshold-crossing reaction applied while the sweeper is parked on
	// the entry lock.
	e.sub.Reactors[9] = struct{}{}
	e.sub.ReactionCount++
	e.sub.State = domain.SubmissionPayoutInFlight
	e.mu.Unlock()

	require.Zero(t, <-done)

	sub, err := store.Get("42")
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionPayoutInFlight, sub.State)
	require.Equal(t, 1, sub.ReactionCount)
	require.Equal(t, ReactionIgnored, store.RecordReaction(ctx, "42", 10))
}

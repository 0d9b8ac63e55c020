package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/set-night/memelord/internal/domain"
)

func TestLedgerCreditAccumulates(t *testing.T) {
	ledger := NewLedgerService()
	ctx := context.Background()

	total, err := ledger.Credit(ctx, 1, 10000)
	require.NoError(t, err)
	require.Equal(t, int64(10000), total)

	total, err = ledger.Credit(ctx, 1, 4500)
	require.NoError(t, err)
	require.Equal(t, int64(14500), total)
	require.Equal(t, int64(0), ledger.Get(2).TotalSats)
}

func TestLedgerRejectsNonPositiveCredit(t *testing.T) {
	ledger := NewLedgerService()

	_, err := ledger.Credit(context.Background(), 1, 0)
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Equal(t, int64(0), ledger.Get(1).TotalSats)
}

func TestLedgerAwardBadgeOnce(t *testing.T) {
	ledger := NewLedgerService()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.AwardBadge(ctx, 7, "Memelord") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, []string{"Memelord"}, ledger.Get(7).Badges)
}

func TestLedgerGetReturnsCopy(t *testing.T) {
	ledger := NewLedgerService()
	ctx := context.Background()
	ledger.AwardBadge(ctx, 1, "Normie Badge")

	entry := ledger.Get(1)
	entry.Badges[0] = "tampered"

	require.True(t, ledger.Get(1).HasBadge("Normie Badge"))
}

package credit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage/sqlite"
)

type countingAuditor struct {
	mu      sync.Mutex
	details []string
}

func (a *countingAuditor) Record(_ context.Context, _ int64, _, _, details string) {
	a.mu.Lock()
	a.details = append(a.details, details)
	a.mu.Unlock()
}

func setupLedger(t *testing.T, balances map[int64]int64) (*Ledger, *countingAuditor) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for id, credits := range balances {
		_, err := store.UpsertAllowedUser(ctx, &models.AllowedUser{UserID: id, Credits: credits, AddedAt: time.Now()})
		require.NoError(t, err)
	}

	auditor := &countingAuditor{}
	return New(store, auditor, slog.New(slog.NewTextHandler(io.Discard, nil))), auditor
}

func TestCharge(t *testing.T) {
	tests := []struct {
		wantErr     error
		name        string
		userID      int64
		amount      int64
		wantBalance int64
	}{
		{name: "sufficient", userID: 1, amount: 3, wantBalance: 2},
		{name: "exact balance", userID: 2, amount: 1, wantBalance: 0},
		{name: "insufficient", userID: 3, amount: 1, wantErr: ledger.ErrInsufficientCredits},
		{name: "unknown user", userID: 4, amount: 1, wantErr: ledger.ErrNotRegistered},
		{name: "zero amount", userID: 1, amount: 0, wantErr: ledger.ErrInvalidAmount},
		{name: "negative amount", userID: 1, amount: -1, wantErr: ledger.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := setupLedger(t, map[int64]int64{1: 5, 2: 1, 3: 0})

			balance, err := l.Charge(context.Background(), tt.userID, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, balance)
		})
	}
}

func TestCharge_InsufficientKeepsBalance(t *testing.T) {
	l, _ := setupLedger(t, map[int64]int64{1: 2})
	ctx := context.Background()

	_, err := l.Charge(ctx, 1, 3)
	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)

	balance, err := l.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
}

func TestCharge_ConcurrentNeverNegative(t *testing.T) {
	l, _ := setupLedger(t, map[int64]int64{1: 1})
	ctx := context.Background()

	const workers = 10
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Charge(ctx, 1, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ledger.ErrInsufficientCredits):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, insufficient)

	balance, err := l.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestReward(t *testing.T) {
	l, _ := setupLedger(t, map[int64]int64{1: 0})
	ctx := context.Background()

	balance, err := l.Reward(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance)

	balance, err = l.Reward(ctx, 1, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_001), balance)

	_, err = l.Reward(ctx, 2, 1)
	assert.ErrorIs(t, err, ledger.ErrNotRegistered)

	_, err = l.Reward(ctx, 1, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestTopUp(t *testing.T) {
	l, auditor := setupLedger(t, map[int64]int64{1: 10})

	balance, err := l.TopUp(context.Background(), 99, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)
	assert.Equal(t, []string{"topup=15 balance=25"}, auditor.details)

	_, err = l.TopUp(context.Background(), 99, 2, 15)
	assert.ErrorIs(t, err, ledger.ErrNotRegistered)
	assert.Len(t, auditor.details, 1)
}

func TestBalance_Unknown(t *testing.T) {
	l, _ := setupLedger(t, nil)

	_, err := l.Balance(context.Background(), 1)
	assert.ErrorIs(t, err, ledger.ErrNotRegistered)
}

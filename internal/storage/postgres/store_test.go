package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/storage"
)

// REPLICA_TEST_POSTGRES_DSN이 있을 때만 실제 데이터베이스로 실행합니다
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("REPLICA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("REPLICA_TEST_POSTGRES_DSN 미설정")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(ctx))
	_, err = s.pool.Exec(ctx, `TRUNCATE accounts, orders, closed_positions RESTART IDENTITY`)
	require.NoError(t, err)
	return s
}

func TestWriteBatchAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	acc := domain.AccountConfig{UserID: "u1", APIKey: "k", APISecret: "s", Active: true, Multiplier: 1, Leverage: 2}
	order := domain.PendingOrder{
		OrderID: "o1", UserID: "u1", Market: domain.Futures, Symbol: "BTCUSDT", Side: domain.Buy,
		OrderType: domain.MarketOrder, Price: 100, Quantity: 0.01, SizeUSDT: 1, Status: domain.StatusFilled, Time: at, Active: true,
	}
	require.NoError(t, s.WriteBatch(ctx, []domain.AccountConfig{acc}, []domain.PendingOrder{order}, nil))

	order.Active = false
	closed := domain.ClosedPosition{UserID: "u1", Symbol: "BTCUSDT", Quantity: 0.01, SizeUSDT: 1, EntryPrice: 100, ExitPrice: 110, RealizedPnL: 0.1, CloseTime: at.Add(time.Hour)}
	require.NoError(t, s.WriteBatch(ctx, nil, []domain.PendingOrder{order}, []domain.ClosedPosition{closed}))

	accounts, err := s.LoadAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, 2, accounts[0].Leverage)

	active, err := s.LoadActiveOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	orders, err := s.ListOrders(ctx, storage.ListOptions{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.False(t, orders[0].Active)

	cps, err := s.ListClosedPositions(ctx, storage.ListOptions{UserID: "u1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, 0.1, cps[0].RealizedPnL)

	require.NoError(t, s.DeleteAccount(ctx, "u1"))
	accounts, err = s.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

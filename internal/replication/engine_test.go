package replication

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/replica/internal/account"
	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange/exchangetest"
	"github.com/assist-by/replica/internal/ledger"
	"github.com/assist-by/replica/internal/notification"
	"github.com/assist-by/replica/internal/retry"
	"github.com/assist-by/replica/internal/sizing"
)

type fixture struct {
	registry *account.Registry
	ledger   *ledger.Ledger
	factory  *exchangetest.Factory
	engine   *Engine
	notifier *recordingNotifier
}

type recordingNotifier struct {
	notification.Nop
	batches []notification.BatchSummary
}

func (r *recordingNotifier) SendBatch(_ context.Context, b notification.BatchSummary) error {
	r.batches = append(r.batches, b)
	return nil
}

func noSleepPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		registry: account.NewRegistry(),
		ledger:   ledger.New(),
		factory:  exchangetest.NewFactory(),
		notifier: &recordingNotifier{},
	}
	f.engine = NewEngine(f.registry, f.ledger, f.factory, noSleepPolicy(),
		Config{QuoteAsset: "USDT", MinNotional: sizing.DefaultMinNotional, MaxWorkers: 4},
		WithNotifier(f.notifier))
	return f
}

// addAccount는 BTCUSDT 가격 100, 잔고 1000 USDT인 계정을 추가합니다
func (f *fixture) addAccount(t *testing.T, userID string, active bool) *exchangetest.Gateway {
	t.Helper()
	require.NoError(t, f.registry.Upsert(domain.AccountConfig{
		UserID: userID, APIKey: "k", APISecret: "s", Active: active, Multiplier: 2, Leverage: 5,
	}))
	gw := f.factory.Add(userID)
	gw.Prices["BTCUSDT"] = 100
	gw.SetBalance(domain.Futures, "USDT", 1000)
	gw.SetBalance(domain.Spot, "USDT", 1000)
	return gw
}

func tradeSignal() domain.Signal {
	return domain.Signal{Action: domain.ActionTrade, Market: domain.Futures, Symbol: "btcusdt", Side: domain.Buy, SizePct: 10}
}

func TestEngine_Trade(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)

	report, err := f.engine.Handle(context.Background(), tradeSignal())
	require.NoError(t, err)
	require.Len(t, report.Placed(), 1)

	orders := gw.PlacedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, "BTCUSDT", orders[0].Symbol)
	assert.Equal(t, "10", orders[0].Quantity.String())
	assert.False(t, orders[0].ReduceOnly)
	assert.NotEmpty(t, orders[0].ClientOrderID)

	active := f.ledger.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "u1", active[0].UserID)
	assert.Equal(t, domain.StatusFilled, active[0].Status)
	assert.Equal(t, 10.0, active[0].Quantity)
	assert.Equal(t, 1000.0, active[0].SizeUSDT)
	assert.Equal(t, 100.0, active[0].Price)

	require.Len(t, f.notifier.batches, 1)
	assert.Equal(t, 1, f.notifier.batches[0].Placed)
}

func TestEngine_FanOutIsolation(t *testing.T) {
	f := newFixture(t)
	a := f.addAccount(t, "a", true)
	a.PlaceErr = exchangetest.AuthError()
	f.addAccount(t, "b", true)

	report, err := f.engine.Handle(context.Background(), tradeSignal())
	require.NoError(t, err)

	require.Len(t, report.Failures(), 1)
	assert.Equal(t, "a", report.Failures()[0].UserID)
	require.Len(t, report.Placed(), 1)
	assert.Equal(t, "b", report.Placed()[0].UserID)

	active := f.ledger.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].UserID)
}

func TestEngine_TransientErrorsRetried(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)
	gw.PriceErr = exchangetest.RateLimitError()

	report, err := f.engine.Handle(context.Background(), tradeSignal())
	require.NoError(t, err)

	require.Len(t, report.Failures(), 1)
	var exhausted *retry.ExhaustedError
	assert.True(t, errors.As(report.Failures()[0].Err, &exhausted))
	assert.Equal(t, 4, gw.PriceCalls)
}

func TestEngine_InvalidSignalTouchesNothing(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)

	sig := tradeSignal()
	sig.SizePct = 0

	report, err := f.engine.Handle(context.Background(), sig)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, report)
	assert.Zero(t, gw.PriceCalls)
	assert.Empty(t, f.notifier.batches)
}

func TestEngine_InactiveAndSkipped(t *testing.T) {
	f := newFixture(t)
	off := f.addAccount(t, "off", true)
	_, err := f.registry.SetStatus("off", false)
	require.NoError(t, err)

	poor := f.addAccount(t, "poor", true)
	poor.SetBalance(domain.Futures, "USDT", 0.01)

	report, err := f.engine.Handle(context.Background(), tradeSignal())
	require.NoError(t, err)

	assert.Len(t, report.Skipped(), 2)
	assert.Empty(t, report.Failures())
	assert.Zero(t, off.PriceCalls)
	assert.Empty(t, poor.PlacedOrders())
	assert.Empty(t, f.ledger.Active())
}

func TestEngine_Close(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)
	gw.SetPositions(domain.Futures,
		domain.Position{Symbol: "ETHUSDT", Quantity: 1},
		domain.Position{Symbol: "BTCUSDT", Quantity: -0.5},
	)

	report, err := f.engine.Handle(context.Background(), domain.Signal{
		Action: domain.ActionClose, Market: domain.Futures, Symbol: "BTCUSDT", Percentage: 50,
	})
	require.NoError(t, err)
	require.Len(t, report.Placed(), 1)

	orders := gw.PlacedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.Buy, orders[0].Side)
	assert.True(t, orders[0].ReduceOnly)
	assert.Equal(t, "0.25", orders[0].Quantity.String())

	// 청산 주문은 저장만 하고 정산 대상으로 남기지 않습니다
	assert.Empty(t, f.ledger.Active())
	pending := f.ledger.Pending().Orders
	require.Len(t, pending, 1)
	assert.False(t, pending[0].Active)
	assert.Equal(t, domain.Buy, pending[0].Side)
}

func TestEngine_CloseWithoutPosition(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)

	report, err := f.engine.Handle(context.Background(), domain.Signal{
		Action: domain.ActionClose, Market: domain.Futures, Symbol: "BTCUSDT", Percentage: 100,
	})
	require.NoError(t, err)
	assert.Len(t, report.Skipped(), 1)
	assert.Empty(t, gw.PlacedOrders())
}

func TestEngine_CloseAll(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)
	gw.Prices["ETHUSDT"] = 3000
	gw.SetPositions(domain.Futures,
		domain.Position{Symbol: "ETHUSDT", Quantity: 1.5},
		domain.Position{Symbol: "BTCUSDT", Quantity: -0.25},
		domain.Position{Symbol: "XRPUSDT", Quantity: 10}, // 가격 없음 -> 실패
	)

	report, err := f.engine.Handle(context.Background(), domain.Signal{Action: domain.ActionCloseAll, Market: domain.Futures})
	require.NoError(t, err)

	assert.Len(t, report.Placed(), 2)
	assert.Len(t, report.Failures(), 1)
	assert.Equal(t, "XRPUSDT", report.Failures()[0].Symbol)

	sides := map[string]domain.OrderSide{}
	for _, o := range gw.PlacedOrders() {
		sides[o.Symbol] = o.Side
		assert.True(t, o.ReduceOnly)
	}
	assert.Equal(t, domain.Sell, sides["ETHUSDT"])
	assert.Equal(t, domain.Buy, sides["BTCUSDT"])
}

func TestEngine_SpotTradeIgnoresLeverage(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)

	sig := tradeSignal()
	sig.Market = domain.Spot
	_, err := f.engine.Handle(context.Background(), sig)
	require.NoError(t, err)

	orders := gw.PlacedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, "2", orders[0].Quantity.String())
	assert.Equal(t, domain.Spot, orders[0].Market)

	assert.Empty(t, f.ledger.Active())
	pending := f.ledger.Pending().Orders
	require.Len(t, pending, 1)
	assert.Equal(t, domain.Spot, pending[0].Market)
	assert.False(t, pending[0].Active)
}

func TestEngine_CanceledOrderReportedAsFailure(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1", true)
	gw.OrderStatus = "EXPIRED"

	report, err := f.engine.Handle(context.Background(), tradeSignal())
	require.NoError(t, err)
	assert.Len(t, report.Failures(), 1)
	assert.Empty(t, f.ledger.Active())
	assert.Len(t, f.ledger.Pending().Orders, 1)
}

func TestEngine_ManyAccountsBounded(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		f.addAccount(t, id, true)
	}

	report, err := f.engine.Handle(context.Background(), tradeSignal())
	require.NoError(t, err)
	assert.Len(t, report.Placed(), 8)
	assert.Len(t, f.ledger.Active(), 8)
}

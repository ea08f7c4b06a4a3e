package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/replica/internal/account"
	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange/exchangetest"
	"github.com/assist-by/replica/internal/ledger"
	"github.com/assist-by/replica/internal/persistence"
	"github.com/assist-by/replica/internal/reconcile"
	"github.com/assist-by/replica/internal/replication"
	"github.com/assist-by/replica/internal/retry"
	"github.com/assist-by/replica/internal/storage/storagetest"
)

const (
	webhookToken = "hook-secret"
	adminToken   = "admin-secret"
)

type fixture struct {
	registry *account.Registry
	ledger   *ledger.Ledger
	factory  *exchangetest.Factory
	store    *storagetest.Memory
	flusher  *persistence.Flusher
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	policy := retry.DefaultPolicy()
	policy.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	f := &fixture{
		registry: account.NewRegistry(),
		ledger:   ledger.New(),
		factory:  exchangetest.NewFactory(),
		store:    storagetest.NewMemory(),
	}
	f.flusher = persistence.NewFlusher(f.registry, f.ledger, f.store, nil)

	f.handler = NewRouter(Deps{
		Registry:     f.registry,
		Signals:      replication.NewEngine(f.registry, f.ledger, f.factory, policy, replication.Config{MinNotional: 5, MaxWorkers: 4}),
		Reconciler:   reconcile.NewEngine(f.registry, f.ledger, f.factory, policy),
		Accounts:     f.flusher,
		Store:        f.store,
		Gateways:     f.factory,
		WebhookToken: webhookToken,
		AdminToken:   adminToken,
		MaxWorkers:   4,
	})
	return f
}

func (f *fixture) addAccount(t *testing.T, userID string) *exchangetest.Gateway {
	t.Helper()
	require.NoError(t, f.registry.Upsert(domain.AccountConfig{
		UserID: userID, APIKey: "key-" + userID + "-long", APISecret: "secret", Active: true, Multiplier: 1, Leverage: 1,
	}))
	gw := f.factory.Add(userID)
	gw.Prices["BTCUSDT"] = 100
	gw.SetBalance(domain.Futures, "USDT", 1000)
	return gw
}

func (f *fixture) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestWebhook_Status(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "잘못된 JSON", body: `{"token":`, want: http.StatusBadRequest},
		{name: "빈 본문", body: ``, want: http.StatusBadRequest},
		{name: "토큰 불일치", body: `{"token":"nope","symbol":"BTCUSDT","side":"buy","size":10}`, want: http.StatusUnauthorized},
		{name: "알 수 없는 방향", body: `{"token":"hook-secret","symbol":"BTCUSDT","side":"hold","size":10}`, want: http.StatusBadRequest},
		{name: "비율 초과", body: `{"token":"hook-secret","symbol":"BTCUSDT","side":"buy","size":150}`, want: http.StatusBadRequest},
		{name: "알 수 없는 시장", body: `{"token":"hook-secret","market":"margin","symbol":"BTCUSDT","side":"buy","size":10}`, want: http.StatusBadRequest},
		{name: "잘못된 크기 문자열", body: `{"token":"hook-secret","symbol":"BTCUSDT","side":"buy","size":"ten"}`, want: http.StatusBadRequest},
		{name: "정상 시그널", body: `{"token":"hook-secret","symbol":"btcusdt","side":"buy","size":10}`, want: http.StatusOK},
		{name: "크기 문자열", body: `{"token":"hook-secret","symbol":"BTCUSDT","side":"sell","size":"10"}`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			gw := f.addAccount(t, "u1")

			rec := f.do(t, http.MethodPost, "/webhook", tt.body, false)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want != http.StatusOK {
				assert.Empty(t, gw.PlacedOrders())
			}
		})
	}
}

func TestWebhook_TradeDefaults(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1")
	f.addAccount(t, "u2")
	f.factory.Gateways["u2"].BalanceErr = exchangetest.AuthError()

	rec := f.do(t, http.MethodPost, "/webhook", `{"token":"hook-secret","symbol":"BTCUSDT","side":"BUY","size":10}`, false)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[webhookResponse](t, rec)
	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, 1, resp.Placed)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "u2", resp.Failed[0].UserID)

	orders := gw.PlacedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.Futures, orders[0].Market)
	assert.Equal(t, domain.Buy, orders[0].Side)
	assert.Len(t, f.ledger.Active(), 1)
}

func TestWebhook_CloseDefaultsToFullPosition(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1")
	gw.SetPositions(domain.Futures, domain.Position{Symbol: "BTCUSDT", Quantity: 0.5})

	rec := f.do(t, http.MethodPost, "/webhook", `{"token":"hook-secret","action":"close","symbol":"BTCUSDT"}`, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	orders := gw.PlacedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, "0.5", orders[0].Quantity.String())
	assert.Equal(t, domain.Sell, orders[0].Side)
	assert.True(t, orders[0].ReduceOnly)
}

func TestAdminToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/accounts", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/accounts", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	open := NewRouter(Deps{Registry: f.registry, WebhookToken: webhookToken})
	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set("X-Admin-Token", "")
	w := httptest.NewRecorder()
	open.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListAccounts_Redacted(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "u1")

	rec := f.do(t, http.MethodGet, "/accounts", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	accounts := decode[[]domain.AccountConfig](t, rec)
	require.Len(t, accounts, 1)
	assert.Empty(t, accounts[0].APISecret)
	assert.NotContains(t, rec.Body.String(), `"secret"`)
}

func TestSaveAccount(t *testing.T) {
	f := newFixture(t)
	gw := f.factory.Add("new")
	gw.Summary = domain.AccountSummary{AvailableBalance: 250, UnrealizedPnL: -3}

	rec := f.do(t, http.MethodPost, "/accounts", `{"user_id":"new","api_key":"k","api_secret":"s","leverage":3}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	acc, err := f.registry.Get("new")
	require.NoError(t, err)
	assert.True(t, acc.Active)
	assert.Equal(t, 1.0, acc.Multiplier)
	assert.Equal(t, 3, acc.Leverage)
	assert.Equal(t, 250.0, acc.AvailableFund)

	stored, _ := f.store.LoadAccounts(context.Background())
	require.Len(t, stored, 1)
	assert.Equal(t, "s", stored[0].APISecret)
}

func TestSaveAccount_Rejected(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "키 확인 실패", path: "/accounts", body: `{"user_id":"ghost","api_key":"k","api_secret":"s"}`, want: http.StatusBadRequest},
		{name: "음수 배수", path: "/accounts?verify=false", body: `{"user_id":"x","api_key":"k","api_secret":"s","multiplier":-1}`, want: http.StatusBadRequest},
		{name: "레버리지 0", path: "/accounts?verify=false", body: `{"user_id":"x","api_key":"k","api_secret":"s","leverage":0}`, want: http.StatusBadRequest},
		{name: "비밀키 누락", path: "/accounts?verify=false", body: `{"user_id":"x","api_key":"k"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, tt.path, tt.body, true)
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, f.registry.Snapshot())
		})
	}
}

func TestSaveAccount_WithoutVerify(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/accounts?verify=false", `{"user_id":"offline","api_key":"k","api_secret":"s"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := f.registry.Get("offline")
	assert.NoError(t, err)
}

func TestUpdateAccount(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		body  string
		want  int
		check func(t *testing.T, acc domain.AccountConfig)
	}{
		{
			name: "비활성화", path: "/accounts/u1/status", body: `{"active":false}`, want: http.StatusOK,
			check: func(t *testing.T, acc domain.AccountConfig) { assert.False(t, acc.Active) },
		},
		{
			name: "배수 변경", path: "/accounts/u1/multiplier", body: `{"multiplier":2.5}`, want: http.StatusOK,
			check: func(t *testing.T, acc domain.AccountConfig) { assert.Equal(t, 2.5, acc.Multiplier) },
		},
		{
			name: "배수 0 허용", path: "/accounts/u1/multiplier", body: `{"multiplier":0}`, want: http.StatusOK,
			check: func(t *testing.T, acc domain.AccountConfig) { assert.Equal(t, 0.0, acc.Multiplier) },
		},
		{
			name: "레버리지 변경", path: "/accounts/u1/leverage", body: `{"leverage":10}`, want: http.StatusOK,
			check: func(t *testing.T, acc domain.AccountConfig) { assert.Equal(t, 10, acc.Leverage) },
		},
		{name: "음수 배수", path: "/accounts/u1/multiplier", body: `{"multiplier":-0.5}`, want: http.StatusBadRequest},
		{name: "배수 누락", path: "/accounts/u1/multiplier", body: `{}`, want: http.StatusBadRequest},
		{name: "레버리지 0", path: "/accounts/u1/leverage", body: `{"leverage":0}`, want: http.StatusBadRequest},
		{name: "없는 계정", path: "/accounts/ghost/status", body: `{"active":true}`, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addAccount(t, "u1")

			rec := f.do(t, http.MethodPost, tt.path, tt.body, true)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.check == nil {
				return
			}

			acc, err := f.registry.Get("u1")
			require.NoError(t, err)
			tt.check(t, acc)

			stored, _ := f.store.LoadAccounts(context.Background())
			require.Len(t, stored, 1)
			tt.check(t, stored[0])
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "u1")
	require.NoError(t, f.flusher.Flush(context.Background()))

	rec := f.do(t, http.MethodDelete, "/accounts/u1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.registry.Snapshot())

	stored, _ := f.store.LoadAccounts(context.Background())
	assert.Empty(t, stored)

	rec = f.do(t, http.MethodDelete, "/accounts/u1", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrdersAndClosedPositions(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1")

	rec := f.do(t, http.MethodPost, "/webhook", `{"token":"hook-secret","symbol":"BTCUSDT","side":"buy","size":10}`, false)
	require.Equal(t, http.StatusOK, rec.Code)

	gw.SetTrades("BTCUSDT", domain.Fill{Symbol: "BTCUSDT", Side: domain.Sell, Quantity: 1, Price: 110, RealizedPnL: 10, Time: time.Now()})
	rec = f.do(t, http.MethodPost, "/sync", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[reconcile.Summary](t, rec)
	assert.Equal(t, 1, summary.Closed)

	require.NoError(t, f.flusher.Flush(context.Background()))

	rec = f.do(t, http.MethodGet, "/orders?user_id=u1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[[]domain.PendingOrder](t, rec)
	require.Len(t, orders, 1)
	assert.False(t, orders[0].Active)

	rec = f.do(t, http.MethodGet, "/orders?active=true", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/closed-positions", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	closed := decode[[]domain.ClosedPosition](t, rec)
	require.Len(t, closed, 1)
	assert.Equal(t, 10.0, closed[0].RealizedPnL)
	assert.Equal(t, 110.0, closed[0].ExitPrice)
}

func TestOpenPositions(t *testing.T) {
	f := newFixture(t)
	gw := f.addAccount(t, "u1")
	gw.SetPositions(domain.Futures, domain.Position{Symbol: "BTCUSDT", Quantity: -0.2, EntryPrice: 100})
	f.addAccount(t, "u2")
	_, err := f.registry.SetStatus("u2", false)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/positions", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[[]accountPositions](t, rec)
	require.Len(t, out, 1)
	assert.Equal(t, "u1", out[0].UserID)
	require.Len(t, out[0].Positions, 1)
	assert.Equal(t, -0.2, out[0].Positions[0].Quantity)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.addAccount(t, "u1")

	rec := f.do(t, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	h := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 1, h.Accounts)
}

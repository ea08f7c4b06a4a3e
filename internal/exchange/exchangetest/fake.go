// Package exchangetest는 테스트용 인메모리 Gateway를 제공합니다.
package exchangetest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
)

// Gateway는 exchange.Gateway의 인메모리 구현입니다
type Gateway struct {
	mu sync.Mutex

	Prices    map[string]float64 // symbol -> price
	Filters   map[string]domain.SymbolFilters
	Balances  map[string]float64 // "market:asset" -> 잔고
	Positions map[domain.Market][]domain.Position
	Trades    map[string][]domain.Fill // symbol -> fills
	Summary   domain.AccountSummary

	// 설정하면 해당 호출이 이 에러를 반환합니다
	PriceErr   error
	BalanceErr error
	PlaceErr   error
	TradesErr  error

	// OrderStatus는 주문 응답 상태입니다. 비어 있으면 FILLED입니다
	OrderStatus string

	Orders     []domain.OrderRequest
	PriceCalls int
	TradeCalls int
	nextID     int64
}

// NewGateway는 빈 Gateway를 생성합니다
func NewGateway() *Gateway {
	return &Gateway{
		Prices:    make(map[string]float64),
		Filters:   make(map[string]domain.SymbolFilters),
		Balances:  make(map[string]float64),
		Positions: make(map[domain.Market][]domain.Position),
		Trades:    make(map[string][]domain.Fill),
		nextID:    1000,
	}
}

// SetBalance는 잔고를 설정합니다
func (g *Gateway) SetBalance(market domain.Market, asset string, amount float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Balances[string(market)+":"+asset] = amount
}

// SetPositions는 포지션을 교체합니다
func (g *Gateway) SetPositions(market domain.Market, positions ...domain.Position) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Positions[market] = positions
}

// SetTrades는 심볼의 체결 내역을 교체합니다
func (g *Gateway) SetTrades(symbol string, fills ...domain.Fill) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Trades[symbol] = fills
}

// PlacedOrders는 접수된 주문의 복사본을 반환합니다
func (g *Gateway) PlacedOrders() []domain.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.OrderRequest(nil), g.Orders...)
}

func (g *Gateway) GetPrice(_ context.Context, _ domain.Market, symbol string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PriceCalls++
	if g.PriceErr != nil {
		return 0, g.PriceErr
	}
	p, ok := g.Prices[symbol]
	if !ok || p <= 0 {
		return 0, fmt.Errorf("%s: %w", symbol, exchange.ErrInvalidPrice)
	}
	return p, nil
}

func (g *Gateway) GetSymbolFilters(_ context.Context, _ domain.Market, symbol string) (domain.SymbolFilters, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.Filters[symbol]; ok {
		return f, nil
	}
	return domain.SymbolFilters{Symbol: symbol, StepSize: 0.001, Precision: 3}, nil
}

func (g *Gateway) GetBalance(_ context.Context, market domain.Market, asset string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.BalanceErr != nil {
		return 0, g.BalanceErr
	}
	return g.Balances[string(market)+":"+asset], nil
}

func (g *Gateway) GetPositions(_ context.Context, market domain.Market) ([]domain.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Position(nil), g.Positions[market]...), nil
}

func (g *Gateway) GetAccountTrades(_ context.Context, symbol string) ([]domain.Fill, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.TradeCalls++
	if g.TradesErr != nil {
		return nil, g.TradesErr
	}
	return append([]domain.Fill(nil), g.Trades[symbol]...), nil
}

func (g *Gateway) GetAccountSummary(context.Context) (domain.AccountSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.BalanceErr != nil {
		return domain.AccountSummary{}, g.BalanceErr
	}
	return g.Summary, nil
}

func (g *Gateway) PlaceMarketOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.PlaceErr != nil {
		return nil, g.PlaceErr
	}
	g.Orders = append(g.Orders, req)
	g.nextID++

	status := g.OrderStatus
	if status == "" {
		status = "FILLED"
	}
	qty, _ := req.Quantity.Float64()
	return &domain.OrderResponse{
		OrderID:          g.nextID,
		Symbol:           req.Symbol,
		Status:           status,
		ClientOrderID:    req.ClientOrderID,
		AvgPrice:         g.Prices[req.Symbol],
		OrigQuantity:     qty,
		ExecutedQuantity: qty,
		Side:             req.Side,
		CreateTime:       time.Now(),
	}, nil
}

// Factory는 UserID별 Gateway를 반환하는 exchange.Factory입니다
type Factory struct {
	mu       sync.Mutex
	Gateways map[string]*Gateway
	Err      map[string]error
}

// NewFactory는 빈 Factory를 생성합니다
func NewFactory() *Factory {
	return &Factory{Gateways: make(map[string]*Gateway), Err: make(map[string]error)}
}

// Add는 계정의 Gateway를 등록하고 반환합니다
func (f *Factory) Add(userID string) *Gateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := NewGateway()
	f.Gateways[userID] = g
	return g
}

func (f *Factory) ForAccount(_ context.Context, acc domain.AccountConfig) (exchange.Gateway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Err[acc.UserID]; err != nil {
		return nil, err
	}
	g, ok := f.Gateways[acc.UserID]
	if !ok {
		return nil, exchange.NewAPIError("클라이언트 생성", http.StatusUnauthorized, exchange.CodeInvalidAPIKey, "unknown account")
	}
	return g, nil
}

// AuthError는 재시도하지 않는 인증 에러를 반환합니다
func AuthError() error {
	return exchange.NewAPIError("주문 실행", http.StatusUnauthorized, exchange.CodeRejectedAPIKey, "Invalid API-key")
}

// RateLimitError는 재시도 대상인 레이트 리밋 에러를 반환합니다
func RateLimitError() error {
	return exchange.NewAPIError("가격 조회", http.StatusTooManyRequests, exchange.CodeTooManyRequests, "Too many requests")
}

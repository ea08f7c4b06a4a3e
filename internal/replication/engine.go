package replication

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assist-by/replica/internal/account"
	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
	"github.com/assist-by/replica/internal/id"
	"github.com/assist-by/replica/internal/ledger"
	"github.com/assist-by/replica/internal/notification"
	"github.com/assist-by/replica/internal/retry"
	"github.com/assist-by/replica/internal/sizing"
)

// Config는 복제 엔진 설정입니다
type Config struct {
	QuoteAsset  string  // 잔고 조회 자산 (기본 USDT)
	MinNotional float64 // 선물 최소 주문 가치
	MaxWorkers  int     // 동시에 처리할 최대 계정 수
}

// Engine은 시그널을 모든 활성 계정에 복제합니다
type Engine struct {
	registry *account.Registry
	ledger   *ledger.Ledger
	gateways exchange.Factory
	retry    retry.Policy
	notifier notification.Notifier
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

// Option은 엔진 생성 옵션입니다
type Option func(*Engine)

// WithLogger는 로거를 지정합니다
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithNotifier는 결과 알림 대상을 지정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// NewEngine은 새로운 복제 엔진을 생성합니다
func NewEngine(registry *account.Registry, l *ledger.Ledger, gateways exchange.Factory, policy retry.Policy, cfg Config, opts ...Option) *Engine {
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	e := &Engine{
		registry: registry,
		ledger:   l,
		gateways: gateways,
		retry:    policy,
		notifier: notification.Nop{},
		cfg:      cfg,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle은 시그널을 검증한 뒤 계정별로 주문을 실행합니다.
// 검증을 통과하면 일부 계정이 실패해도 에러 없이 Report를 반환합니다.
func (e *Engine) Handle(ctx context.Context, sig domain.Signal) (*Report, error) {
	sig = sig.Normalize()
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		BatchID:   id.New(),
		Signal:    sig,
		StartedAt: e.now(),
	}
	log := e.log.With(
		zap.String("batch_id", report.BatchID),
		zap.String("action", string(sig.Action)),
		zap.String("market", string(sig.Market)),
		zap.String("symbol", sig.Symbol))

	// 잠금 밖에서 처리하기 위한 스냅샷
	snapshot := e.registry.Snapshot()
	results := make([][]Result, len(snapshot))

	active := 0
	for _, acc := range snapshot {
		if acc.Active {
			active++
		}
	}

	var g errgroup.Group
	g.SetLimit(max(1, min(e.cfg.MaxWorkers, active)))

	for i, acc := range snapshot {
		if !acc.Active {
			results[i] = []Result{{UserID: acc.UserID, Symbol: sig.Symbol, Outcome: Skipped, Reason: "비활성 계정"}}
			continue
		}
		i, acc := i, acc
		g.Go(func() error {
			results[i] = e.processAccount(ctx, sig, acc)
			return nil
		})
	}
	_ = g.Wait()

	for _, rs := range results {
		for _, r := range rs {
			if r.Outcome == Failed {
				log.Error("계정 처리 실패", zap.String("user_id", r.UserID), zap.String("symbol", r.Symbol), zap.Error(r.Err))
			}
			report.Results = append(report.Results, r)
		}
	}
	report.FinishedAt = e.now()

	log.Info("시그널 복제 완료",
		zap.Int("accounts", len(snapshot)),
		zap.Int("placed", len(report.Placed())),
		zap.Int("skipped", len(report.Skipped())),
		zap.Int("failed", len(report.Failures())),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	if err := e.notifier.SendBatch(ctx, report.Summary()); err != nil {
		log.Warn("배치 알림 전송 실패", zap.Error(err))
	}

	return report, nil
}

func (e *Engine) processAccount(ctx context.Context, sig domain.Signal, acc domain.AccountConfig) []Result {
	gw, err := e.gateways.ForAccount(ctx, acc)
	if err != nil {
		return []Result{failed(acc.UserID, sig.Symbol, fmt.Errorf("클라이언트 생성 실패: %w", err))}
	}

	switch sig.Action {
	case domain.ActionTrade:
		return []Result{e.trade(ctx, gw, sig, acc)}
	case domain.ActionClose:
		return []Result{e.closeSymbol(ctx, gw, sig.Market, sig.Symbol, sig.Percentage, acc)}
	default:
		return e.closeAll(ctx, gw, sig.Market, acc)
	}
}

// trade는 잔고와 계정 설정으로 수량을 계산해 시장가 주문을 실행합니다
func (e *Engine) trade(ctx context.Context, gw exchange.Gateway, sig domain.Signal, acc domain.AccountConfig) Result {
	price, err := retry.Value(ctx, e.retry, "가격 조회", func(ctx context.Context) (float64, error) {
		return gw.GetPrice(ctx, sig.Market, sig.Symbol)
	})
	if err != nil {
		return failed(acc.UserID, sig.Symbol, err)
	}

	balance, err := retry.Value(ctx, e.retry, "잔고 조회", func(ctx context.Context) (float64, error) {
		return gw.GetBalance(ctx, sig.Market, e.cfg.QuoteAsset)
	})
	if err != nil {
		return failed(acc.UserID, sig.Symbol, err)
	}

	filters, err := retry.Value(ctx, e.retry, "심볼 정보 조회", func(ctx context.Context) (domain.SymbolFilters, error) {
		return gw.GetSymbolFilters(ctx, sig.Market, sig.Symbol)
	})
	if err != nil {
		return failed(acc.UserID, sig.Symbol, err)
	}

	size, err := sizing.Size(sizing.Input{
		Market:      sig.Market,
		Balance:     balance,
		SizePct:     sig.SizePct,
		Multiplier:  acc.Multiplier,
		Leverage:    acc.Leverage,
		Price:       price,
		StepSize:    filters.StepSize,
		Precision:   filters.Precision,
		MinNotional: e.cfg.MinNotional,
	})
	if err != nil {
		return failed(acc.UserID, sig.Symbol, err)
	}
	if size.Skip {
		e.log.Info("주문 스킵",
			zap.String("user_id", acc.UserID),
			zap.String("symbol", sig.Symbol),
			zap.Float64("balance", balance),
			zap.Float64("multiplier", acc.Multiplier),
			zap.Int("leverage", acc.Leverage),
			zap.Float64("price", price),
			zap.String("reason", size.Reason))
		return Result{UserID: acc.UserID, Symbol: sig.Symbol, Outcome: Skipped, Quantity: size.Quantity.String(), Reason: size.Reason}
	}

	return e.place(ctx, gw, acc, domain.OrderRequest{
		Market:        sig.Market,
		Symbol:        sig.Symbol,
		Side:          sig.Side,
		Quantity:      size.Quantity,
		ClientOrderID: id.ClientOrderID(),
	}, price)
}

// closeAll은 계정의 모든 열린 포지션을 전량 청산합니다. 포지션별 실패는 개별 기록됩니다
func (e *Engine) closeAll(ctx context.Context, gw exchange.Gateway, market domain.Market, acc domain.AccountConfig) []Result {
	positions, err := retry.Value(ctx, e.retry, "포지션 조회", func(ctx context.Context) ([]domain.Position, error) {
		return gw.GetPositions(ctx, market)
	})
	if err != nil {
		return []Result{failed(acc.UserID, "", err)}
	}

	var results []Result
	for _, p := range positions {
		if p.Quantity == 0 {
			continue
		}
		results = append(results, e.closePosition(ctx, gw, market, p, 100, acc))
	}

	if len(results) == 0 {
		return []Result{{UserID: acc.UserID, Outcome: Skipped, Reason: "열린 포지션 없음"}}
	}
	return results
}

// closeSymbol은 거래소가 보고한 심볼 포지션의 percentage%를 청산합니다
func (e *Engine) closeSymbol(ctx context.Context, gw exchange.Gateway, market domain.Market, symbol string, percentage float64, acc domain.AccountConfig) Result {
	positions, err := retry.Value(ctx, e.retry, "포지션 조회", func(ctx context.Context) ([]domain.Position, error) {
		return gw.GetPositions(ctx, market)
	})
	if err != nil {
		return failed(acc.UserID, symbol, err)
	}

	for _, p := range positions {
		if p.Symbol == symbol && p.Quantity != 0 {
			return e.closePosition(ctx, gw, market, p, percentage, acc)
		}
	}

	return Result{UserID: acc.UserID, Symbol: symbol, Outcome: Skipped, Reason: "열린 포지션 없음"}
}

func (e *Engine) closePosition(ctx context.Context, gw exchange.Gateway, market domain.Market, p domain.Position, percentage float64, acc domain.AccountConfig) Result {
	filters, err := retry.Value(ctx, e.retry, "심볼 정보 조회", func(ctx context.Context) (domain.SymbolFilters, error) {
		return gw.GetSymbolFilters(ctx, market, p.Symbol)
	})
	if err != nil {
		return failed(acc.UserID, p.Symbol, err)
	}

	qty := sizing.CloseQuantity(p.Quantity, percentage, filters.StepSize, filters.Precision)
	if qty.IsZero() {
		return Result{UserID: acc.UserID, Symbol: p.Symbol, Outcome: Skipped,
			Reason: fmt.Sprintf("청산 수량이 최소 단위(%v) 미만입니다", filters.StepSize)}
	}

	price, err := retry.Value(ctx, e.retry, "가격 조회", func(ctx context.Context) (float64, error) {
		return gw.GetPrice(ctx, market, p.Symbol)
	})
	if err != nil {
		return failed(acc.UserID, p.Symbol, err)
	}

	return e.place(ctx, gw, acc, domain.OrderRequest{
		Market:        market,
		Symbol:        p.Symbol,
		Side:          domain.ExitSide(p.Quantity),
		Quantity:      qty,
		ReduceOnly:    market == domain.Futures,
		ClientOrderID: id.ClientOrderID(),
	}, price)
}

// place는 주문을 실행하고 결과를 Ledger에 기록합니다.
// 재시도 시에도 같은 ClientOrderID를 사용해 중복 주문을 막습니다.
func (e *Engine) place(ctx context.Context, gw exchange.Gateway, acc domain.AccountConfig, req domain.OrderRequest, price float64) Result {
	resp, err := retry.Value(ctx, e.retry, "주문 실행", func(ctx context.Context) (*domain.OrderResponse, error) {
		return gw.PlaceMarketOrder(ctx, req)
	})
	if err != nil {
		return failed(acc.UserID, req.Symbol, err)
	}

	qty, _ := req.Quantity.Float64()
	order := domain.PendingOrder{
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: req.ClientOrderID,
		UserID:        acc.UserID,
		Market:        req.Market,
		Symbol:        req.Symbol,
		Side:          req.Side,
		OrderType:     domain.MarketOrder,
		Price:         price,
		Quantity:      qty,
		SizeUSDT:      round2(qty * price),
		Status:        domain.StatusFromExchange(resp.Status),
		Time:          resp.CreateTime,
	}
	if order.Time.IsZero() {
		order.Time = e.now()
	}

	// 선물 진입 주문만 정산 대상으로 남깁니다
	if req.Market == domain.Futures && !req.ReduceOnly {
		e.ledger.Add(order)
	} else {
		e.ledger.Record(order)
	}

	e.log.Info("주문 접수",
		zap.String("user_id", acc.UserID),
		zap.String("order_id", order.OrderID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("quantity", req.Quantity.String()),
		zap.Float64("price", price),
		zap.Bool("reduce_only", req.ReduceOnly),
		zap.String("status", string(order.Status)))

	if order.Status == domain.StatusCanceled {
		return Result{UserID: acc.UserID, Symbol: req.Symbol, Outcome: Failed, OrderID: order.OrderID,
			Quantity: req.Quantity.String(), Reason: fmt.Sprintf("거래소 주문 상태: %s", resp.Status)}
	}

	return Result{UserID: acc.UserID, Symbol: req.Symbol, Outcome: Placed, OrderID: order.OrderID, Quantity: req.Quantity.String()}
}

func failed(userID, symbol string, err error) Result {
	return Result{UserID: userID, Symbol: symbol, Outcome: Failed, Reason: err.Error(), Err: err}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

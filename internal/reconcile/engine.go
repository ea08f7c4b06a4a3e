package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assist-by/replica/internal/account"
	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
	"github.com/assist-by/replica/internal/ledger"
	"github.com/assist-by/replica/internal/notification"
	"github.com/assist-by/replica/internal/retry"
)

// Summary는 정산 한 번의 결과입니다
type Summary struct {
	StartedAt      time.Time `json:"started_at"`
	Accounts       int       `json:"accounts"`        // 조회한 계정 수
	Fills          int       `json:"fills"`           // 조회한 체결 수
	Closed         int       `json:"closed"`          // 새로 확정된 청산 수
	Unmatched      int       `json:"unmatched"`       // 대응하는 주문이 없는 체결 수
	Ambiguous      int       `json:"ambiguous"`       // 후보 주문이 여러 개였던 매칭 수
	FailedAccounts []string  `json:"failed_accounts"` // 재시도 후에도 실패한 계정
}

func (s *Summary) merge(o Summary) {
	s.Accounts += o.Accounts
	s.Fills += o.Fills
	s.Closed += o.Closed
	s.Unmatched += o.Unmatched
	s.Ambiguous += o.Ambiguous
	s.FailedAccounts = append(s.FailedAccounts, o.FailedAccounts...)
}

// Engine은 거래소 체결 내역을 PendingOrder와 대조해 ClosedPosition을 만듭니다
type Engine struct {
	registry   *account.Registry
	ledger     *ledger.Ledger
	gateways   exchange.Factory
	retry      retry.Policy
	notifier   notification.Notifier
	maxWorkers int
	log        *zap.Logger
	now        func() time.Time

	runMu sync.Mutex // 주기 실행과 수동 실행이 겹치지 않게 합니다
}

// Option은 엔진 생성 옵션입니다
type Option func(*Engine)

// WithLogger는 로거를 지정합니다
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithNotifier는 청산 알림 대상을 지정합니다
func WithNotifier(n notification.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMaxWorkers는 동시에 정산할 최대 계정 수를 지정합니다
func WithMaxWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxWorkers = n
		}
	}
}

// NewEngine은 새로운 정산 엔진을 생성합니다
func NewEngine(registry *account.Registry, l *ledger.Ledger, gateways exchange.Factory, policy retry.Policy, opts ...Option) *Engine {
	e := &Engine{
		registry:   registry,
		ledger:     l,
		gateways:   gateways,
		retry:      policy,
		notifier:   notification.Nop{},
		maxWorkers: 1,
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute는 스케줄러 Task 인터페이스를 구현합니다
func (e *Engine) Execute(ctx context.Context) error {
	s := e.RunOnce(ctx)
	if len(s.FailedAccounts) > 0 {
		return fmt.Errorf("정산 실패 계정: %v", s.FailedAccounts)
	}
	return nil
}

// RunOnce는 활성 선물 주문이 있는 모든 계정을 한 번 정산합니다.
// 같은 체결 내역으로 다시 실행해도 ClosedPosition이 중복되지 않습니다.
func (e *Engine) RunOnce(ctx context.Context) Summary {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	summary := Summary{StartedAt: e.now()}
	symbolsByUser := e.pendingSymbols()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.maxWorkers)

	for _, acc := range e.registry.Snapshot() {
		symbols := symbolsByUser[acc.UserID]
		if len(symbols) == 0 {
			continue
		}
		acc := acc
		g.Go(func() error {
			// 종료 신호는 계정 사이에서 확인합니다
			if ctx.Err() != nil {
				return nil
			}

			part, err := e.reconcileAccount(ctx, acc, symbols)
			part.Accounts = 1
			if err != nil {
				part.FailedAccounts = []string{acc.UserID}
				e.log.Error("계정 정산 실패", zap.String("user_id", acc.UserID), zap.Error(err))
			}

			mu.Lock()
			summary.merge(part)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(summary.FailedAccounts) > 0 {
		e.log.Error("일부 계정 정산 실패", zap.Strings("user_ids", summary.FailedAccounts))
	}
	e.log.Info("정산 완료",
		zap.Int("accounts", summary.Accounts),
		zap.Int("fills", summary.Fills),
		zap.Int("closed", summary.Closed),
		zap.Int("unmatched", summary.Unmatched),
		zap.Int("ambiguous", summary.Ambiguous))

	return summary
}

// pendingSymbols는 계정별로 정산 대상 심볼 목록을 만듭니다 (삽입 순서)
func (e *Engine) pendingSymbols() map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]bool)
	for _, o := range e.ledger.Active() {
		if o.Market != domain.Futures || o.Status != domain.StatusFilled {
			continue
		}
		key := o.UserID + "\x00" + o.Symbol
		if seen[key] {
			continue
		}
		seen[key] = true
		out[o.UserID] = append(out[o.UserID], o.Symbol)
	}
	return out
}

func (e *Engine) reconcileAccount(ctx context.Context, acc domain.AccountConfig, symbols []string) (Summary, error) {
	var s Summary
	log := e.log.With(zap.String("user_id", acc.UserID))

	gw, err := e.gateways.ForAccount(ctx, acc)
	if err != nil {
		return s, fmt.Errorf("클라이언트 생성 실패: %w", err)
	}

	positions, err := retry.Value(ctx, e.retry, "포지션 조회", func(ctx context.Context) ([]domain.Position, error) {
		return gw.GetPositions(ctx, domain.Futures)
	})
	if err != nil {
		return s, err
	}
	positionAmt := make(map[string]float64, len(positions))
	for _, p := range positions {
		positionAmt[p.Symbol] += p.Quantity
	}

	for _, symbol := range symbols {
		fills, err := retry.Value(ctx, e.retry, "체결 내역 조회", func(ctx context.Context) ([]domain.Fill, error) {
			return gw.GetAccountTrades(ctx, symbol)
		})
		if err != nil {
			return s, err
		}

		for _, fill := range fills {
			s.Fills++

			match, candidates, ok := e.ledger.FindMatch(acc.UserID, domain.Futures, fill)
			if !ok {
				s.Unmatched++
				log.Debug("대응하는 주문 없는 체결 무시",
					zap.Int64("exchange_order_id", fill.OrderID),
					zap.String("symbol", fill.Symbol),
					zap.String("side", string(fill.Side)))
				continue
			}

			// 포지션이 아직 열려 있거나 실현 손익이 없으면 청산 체결이 아닙니다
			if positionAmt[fill.Symbol] != 0 || fill.RealizedPnL == 0 {
				continue
			}

			if candidates > 1 {
				s.Ambiguous++
				log.Warn("여러 주문이 체결과 매칭됨, 첫 번째 주문 사용",
					zap.String("symbol", fill.Symbol),
					zap.String("order_id", match.OrderID),
					zap.Int("candidates", candidates))
			}

			closed, err := e.close(ctx, gw, acc, match, fill)
			if err != nil {
				return s, err
			}
			if closed {
				s.Closed++
			}
		}
	}

	return s, nil
}

// close는 매칭된 주문을 청산 기록으로 확정합니다. 진입가가 없으면 현재가를 사용합니다
func (e *Engine) close(ctx context.Context, gw exchange.Gateway, acc domain.AccountConfig, match domain.PendingOrder, fill domain.Fill) (bool, error) {
	entry := match.Price
	if entry == 0 {
		price, err := retry.Value(ctx, e.retry, "가격 조회", func(ctx context.Context) (float64, error) {
			return gw.GetPrice(ctx, domain.Futures, fill.Symbol)
		})
		if err != nil {
			return false, err
		}
		e.log.Info("진입가가 없어 현재가 사용",
			zap.String("user_id", acc.UserID), zap.String("symbol", fill.Symbol), zap.Float64("price", price))
		entry = price
	}

	size := fill.Quantity * entry
	cp := domain.ClosedPosition{
		UserID:      acc.UserID,
		Symbol:      fill.Symbol,
		Quantity:    fill.Quantity,
		SizeUSDT:    size,
		EntryPrice:  entry,
		ExitPrice:   fill.Price,
		RealizedPnL: fill.RealizedPnL,
		CloseTime:   fill.Time,
	}

	// 잠금 안에서 주문이 아직 활성인지 다시 확인합니다
	if !e.ledger.Close(match.OrderID, ledger.OrderUpdate{Quantity: fill.Quantity, Price: entry, SizeUSDT: size}, cp) {
		return false, nil
	}

	e.log.Info("포지션 청산 확정",
		zap.String("user_id", acc.UserID),
		zap.String("order_id", match.OrderID),
		zap.String("symbol", fill.Symbol),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("entry_price", entry),
		zap.Float64("exit_price", fill.Price),
		zap.Float64("realized_pnl", fill.RealizedPnL))

	if err := e.notifier.SendClosure(ctx, cp); err != nil {
		e.log.Warn("청산 알림 전송 실패", zap.Error(err))
	}
	return true, nil
}

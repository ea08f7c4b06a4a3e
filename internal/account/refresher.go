package account

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
	"github.com/assist-by/replica/internal/retry"
)

// Refresher는 활성 계정의 사용 가능 잔고와 미실현 손익을 주기적으로 갱신합니다
type Refresher struct {
	registry   *Registry
	gateways   exchange.Factory
	retry      retry.Policy
	maxWorkers int
	log        *zap.Logger
}

// NewRefresher는 새로운 Refresher를 생성합니다
func NewRefresher(registry *Registry, gateways exchange.Factory, policy retry.Policy, maxWorkers int, log *zap.Logger) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Refresher{
		registry:   registry,
		gateways:   gateways,
		retry:      policy,
		maxWorkers: maxWorkers,
		log:        log,
	}
}

// Execute는 스케줄러 Task 인터페이스를 구현합니다
func (r *Refresher) Execute(ctx context.Context) error {
	r.RefreshAll(ctx)
	return nil
}

// RefreshAll은 모든 활성 계정을 갱신합니다. 계정별 실패는 기록만 하고 다른 계정에 영향을 주지 않습니다
func (r *Refresher) RefreshAll(ctx context.Context) {
	var g errgroup.Group
	g.SetLimit(r.maxWorkers)

	for _, acc := range r.registry.Snapshot() {
		if !acc.Active {
			continue
		}
		acc := acc
		g.Go(func() error {
			if err := r.Refresh(ctx, acc); err != nil {
				r.log.Warn("잔고 갱신 실패", zap.String("user_id", acc.UserID), zap.Error(err))
			}
			return nil
		})
	}

	_ = g.Wait()
}

// Refresh는 계정 하나의 잔고 요약을 조회해 Registry에 기록합니다
func (r *Refresher) Refresh(ctx context.Context, acc domain.AccountConfig) error {
	gw, err := r.gateways.ForAccount(ctx, acc)
	if err != nil {
		return err
	}

	summary, err := retry.Value(ctx, r.retry, "계정 조회", func(ctx context.Context) (domain.AccountSummary, error) {
		return gw.GetAccountSummary(ctx)
	})
	if err != nil {
		return err
	}

	r.registry.UpdateFunds(acc.UserID, summary.AvailableBalance, summary.UnrealizedPnL)
	return nil
}

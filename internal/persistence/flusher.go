// Package persistence는 메모리 상태의 변경분을 저장소로 내보냅니다.
package persistence

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/assist-by/replica/internal/account"
	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/ledger"
	"github.com/assist-by/replica/internal/storage"
)

// Flusher는 Registry와 Ledger의 변경분을 하나의 트랜잭션으로 기록합니다
type Flusher struct {
	registry *account.Registry
	ledger   *ledger.Ledger
	store    storage.Store
	log      *zap.Logger

	// Flush와 단일 계정 쓰기를 직렬화합니다
	mu sync.Mutex
}

// NewFlusher는 새로운 Flusher를 생성합니다
func NewFlusher(registry *account.Registry, l *ledger.Ledger, store storage.Store, log *zap.Logger) *Flusher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Flusher{registry: registry, ledger: l, store: store, log: log}
}

// Restore는 저장된 계정과 활성 주문을 메모리로 읽어옵니다
func (f *Flusher) Restore(ctx context.Context) error {
	accounts, err := f.store.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	for _, err := range f.registry.Load(accounts) {
		f.log.Warn("유효하지 않은 저장 계정 무시", zap.Error(err))
	}

	orders, err := f.store.LoadActiveOrders(ctx)
	if err != nil {
		return err
	}
	f.ledger.Load(orders)

	f.log.Info("저장 상태 복원 완료", zap.Int("accounts", len(accounts)), zap.Int("active_orders", len(orders)))
	return nil
}

// Execute는 스케줄러 Task 인터페이스를 구현합니다
func (f *Flusher) Execute(ctx context.Context) error {
	return f.Flush(ctx)
}

// Flush는 저장되지 않은 변경을 기록합니다. 실패하면 변경분은 다음 Flush까지 남아 있습니다
func (f *Flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	changes := f.registry.Pending()
	batch := f.ledger.Pending()
	if len(changes) == 0 && batch.Empty() {
		return nil
	}

	accounts := make([]domain.AccountConfig, 0, len(changes))
	for _, c := range changes {
		accounts = append(accounts, c.Account)
	}

	if err := f.store.WriteBatch(ctx, accounts, batch.Orders, batch.Closed); err != nil {
		f.log.Error("영구 저장 실패, 변경분 유지",
			zap.Int("accounts", len(accounts)),
			zap.Int("orders", len(batch.Orders)),
			zap.Int("closed_positions", len(batch.Closed)),
			zap.Error(err))
		return fmt.Errorf("영구 저장 실패: %w", err)
	}

	f.registry.Ack(changes)
	f.ledger.Ack(batch)

	f.log.Debug("영구 저장 완료",
		zap.Int("accounts", len(accounts)),
		zap.Int("orders", len(batch.Orders)),
		zap.Int("closed_positions", len(batch.Closed)))
	return nil
}

// SaveAccount는 계정 하나를 즉시 기록합니다
func (f *Flusher) SaveAccount(ctx context.Context, acc domain.AccountConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store.SaveAccount(ctx, acc)
}

// DeleteAccount는 계정을 저장소와 Registry에서 함께 제거합니다.
// Flush와 같은 잠금을 사용하므로 삭제된 계정이 다시 기록되지 않습니다.
func (f *Flusher) DeleteAccount(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.registry.Get(userID); err != nil {
		return err
	}
	if err := f.store.DeleteAccount(ctx, userID); err != nil {
		return err
	}
	return f.registry.Remove(userID)
}

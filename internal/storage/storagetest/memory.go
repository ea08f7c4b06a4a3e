// Package storagetest는 테스트용 인메모리 storage.Store를 제공합니다.
package storagetest

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/storage"
)

// Memory는 storage.Store의 인메모리 구현입니다
type Memory struct {
	mu       sync.Mutex
	accounts map[string]domain.AccountConfig
	orders   map[string]domain.PendingOrder
	order    []string // 주문 삽입 순서
	closed   []domain.ClosedPosition

	// WriteErr를 설정하면 WriteBatch가 아무 것도 기록하지 않고 실패합니다
	WriteErr   error
	WriteCalls int
}

var _ storage.Store = (*Memory)(nil)

// NewMemory는 빈 저장소를 생성합니다
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]domain.AccountConfig),
		orders:   make(map[string]domain.PendingOrder),
	}
}

func (m *Memory) Migrate(context.Context) error { return nil }

func (m *Memory) LoadAccounts(context.Context) ([]domain.AccountConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.AccountConfig, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) LoadActiveOrders(ctx context.Context) ([]domain.PendingOrder, error) {
	return m.ListOrders(ctx, storage.ListOptions{ActiveOnly: true, Limit: math.MaxInt})
}

func (m *Memory) SaveAccount(_ context.Context, a domain.AccountConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.UserID] = a
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, userID)
	return nil
}

func (m *Memory) WriteBatch(_ context.Context, accounts []domain.AccountConfig, orders []domain.PendingOrder, closed []domain.ClosedPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	for _, a := range accounts {
		m.accounts[a.UserID] = a
	}
	for _, o := range orders {
		if _, ok := m.orders[o.OrderID]; !ok {
			m.order = append(m.order, o.OrderID)
		}
		m.orders[o.OrderID] = o
	}
	for _, c := range closed {
		c.ID = int64(len(m.closed) + 1)
		m.closed = append(m.closed, c)
	}
	return nil
}

// ListOrders는 삽입 순서대로 주문을 반환합니다
func (m *Memory) ListOrders(_ context.Context, opts storage.ListOptions) ([]domain.PendingOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.PendingOrder
	for _, id := range m.order {
		o := m.orders[id]
		if opts.UserID != "" && o.UserID != opts.UserID {
			continue
		}
		if opts.ActiveOnly && !o.Active {
			continue
		}
		out = append(out, o)
		if len(out) == opts.EffectiveLimit() {
			break
		}
	}
	return out, nil
}

func (m *Memory) ListClosedPositions(_ context.Context, opts storage.ListOptions) ([]domain.ClosedPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ClosedPosition
	for _, c := range m.closed {
		if opts.UserID != "" && c.UserID != opts.UserID {
			continue
		}
		out = append(out, c)
		if len(out) == opts.EffectiveLimit() {
			break
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

package account

import (
	"sort"
	"sync"

	"github.com/assist-by/replica/internal/domain"
)

// Registry는 하위 계정 설정을 소유합니다. 모든 변경은 하나의 잠금으로 직렬화됩니다
type Registry struct {
	mu       sync.Mutex
	accounts map[string]domain.AccountConfig
	dirty    map[string]uint64 // 저장되지 않은 변경의 버전
	version  uint64
}

// NewRegistry는 빈 Registry를 생성합니다
func NewRegistry() *Registry {
	return &Registry{
		accounts: make(map[string]domain.AccountConfig),
		dirty:    make(map[string]uint64),
	}
}

// Load는 저장소에서 읽은 계정들을 등록합니다. 저장된 상태이므로 변경으로 표시하지 않습니다
func (r *Registry) Load(accounts []domain.AccountConfig) []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, acc := range accounts {
		if err := acc.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		r.accounts[acc.UserID] = acc
	}
	return errs
}

// Snapshot은 모든 계정 설정의 복사본을 UserID 순서로 반환합니다
func (r *Registry) Snapshot() []domain.AccountConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.AccountConfig, 0, len(r.accounts))
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Get은 계정 설정을 반환합니다
func (r *Registry) Get(userID string) (domain.AccountConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[userID]
	if !ok {
		return domain.AccountConfig{}, notFound(userID)
	}
	return acc, nil
}

// Upsert는 계정을 추가하거나 교체합니다
func (r *Registry) Upsert(cfg domain.AccountConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[cfg.UserID] = cfg
	r.markDirty(cfg.UserID)
	return nil
}

// SetStatus는 계정 활성화 여부를 변경합니다
func (r *Registry) SetStatus(userID string, active bool) (domain.AccountConfig, error) {
	return r.update(userID, func(acc *domain.AccountConfig) error {
		acc.Active = active
		return nil
	})
}

// SetMultiplier는 리스크 배수를 변경합니다
func (r *Registry) SetMultiplier(userID string, multiplier float64) (domain.AccountConfig, error) {
	if err := domain.ValidateMultiplier(multiplier); err != nil {
		return domain.AccountConfig{}, err
	}
	return r.update(userID, func(acc *domain.AccountConfig) error {
		acc.Multiplier = multiplier
		return nil
	})
}

// SetLeverage는 선물 레버리지를 변경합니다
func (r *Registry) SetLeverage(userID string, leverage int) (domain.AccountConfig, error) {
	if err := domain.ValidateLeverage(leverage); err != nil {
		return domain.AccountConfig{}, err
	}
	return r.update(userID, func(acc *domain.AccountConfig) error {
		acc.Leverage = leverage
		return nil
	})
}

// UpdateFunds는 조회한 잔고와 미실현 손익을 기록합니다. 삭제된 계정이면 무시합니다
func (r *Registry) UpdateFunds(userID string, available, pnl float64) {
	_, _ = r.update(userID, func(acc *domain.AccountConfig) error {
		acc.AvailableFund = available
		acc.LivePnL = pnl
		return nil
	})
}

// Remove는 계정을 삭제합니다
func (r *Registry) Remove(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[userID]; !ok {
		return notFound(userID)
	}
	delete(r.accounts, userID)
	delete(r.dirty, userID)
	return nil
}

// Pending은 저장되지 않은 변경이 있는 계정들을 반환합니다
func (r *Registry) Pending() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Change, 0, len(r.dirty))
	for userID, v := range r.dirty {
		out = append(out, Change{Account: r.accounts[userID], Version: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account.UserID < out[j].Account.UserID })
	return out
}

// Ack는 저장이 끝난 변경을 지웁니다. 저장 중에 다시 바뀐 계정은 남겨둡니다
func (r *Registry) Ack(changes []Change) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range changes {
		if r.dirty[c.Account.UserID] == c.Version {
			delete(r.dirty, c.Account.UserID)
		}
	}
}

// Change는 저장 대기 중인 계정 변경 하나입니다
type Change struct {
	Account domain.AccountConfig
	Version uint64
}

func (r *Registry) update(userID string, fn func(*domain.AccountConfig) error) (domain.AccountConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[userID]
	if !ok {
		return domain.AccountConfig{}, notFound(userID)
	}
	if err := fn(&acc); err != nil {
		return domain.AccountConfig{}, err
	}
	r.accounts[userID] = acc
	r.markDirty(userID)
	return acc, nil
}

func (r *Registry) markDirty(userID string) {
	r.version++
	r.dirty[userID] = r.version
}

func notFound(userID string) error {
	return &domain.NotFoundError{Kind: "account", ID: userID}
}

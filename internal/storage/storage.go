// Package storage는 계정, 주문, 청산 기록의 영구 저장소 인터페이스를 정의합니다.
package storage

import (
	"context"
	"errors"

	"github.com/assist-by/replica/internal/domain"
)

// DefaultListLimit는 목록 조회 시 기본 최대 행 수입니다
const DefaultListLimit = 500

// ErrUnknownDriver는 지원하지 않는 저장소 드라이버입니다
var ErrUnknownDriver = errors.New("지원하지 않는 저장소 드라이버")

// ListOptions는 목록 조회 조건입니다
type ListOptions struct {
	UserID     string // 비어 있으면 모든 계정
	ActiveOnly bool   // 주문 목록에서 활성 주문만
	Limit      int    // 0이면 DefaultListLimit
}

// EffectiveLimit는 적용할 최대 행 수를 반환합니다
func (o ListOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store는 영구 저장소 인터페이스입니다
type Store interface {
	// Migrate는 필요한 테이블을 생성합니다
	Migrate(ctx context.Context) error

	LoadAccounts(ctx context.Context) ([]domain.AccountConfig, error)
	LoadActiveOrders(ctx context.Context) ([]domain.PendingOrder, error)

	SaveAccount(ctx context.Context, acc domain.AccountConfig) error
	DeleteAccount(ctx context.Context, userID string) error

	// WriteBatch는 모든 변경을 하나의 트랜잭션으로 기록합니다. 실패하면 아무 것도 기록되지 않습니다
	WriteBatch(ctx context.Context, accounts []domain.AccountConfig, orders []domain.PendingOrder, closed []domain.ClosedPosition) error

	ListOrders(ctx context.Context, opts ListOptions) ([]domain.PendingOrder, error)
	ListClosedPositions(ctx context.Context, opts ListOptions) ([]domain.ClosedPosition, error)

	Close() error
}

package exchange

import (
	"context"

	"github.com/assist-by/replica/internal/domain"
)

// Gateway는 계정 하나의 자격 증명으로 거래소와 상호작용하기 위한 인터페이스입니다.
type Gateway interface {
	// 시장 데이터 조회
	GetPrice(ctx context.Context, market domain.Market, symbol string) (float64, error)
	GetSymbolFilters(ctx context.Context, market domain.Market, symbol string) (domain.SymbolFilters, error)

	// 계정 데이터 조회
	GetBalance(ctx context.Context, market domain.Market, asset string) (float64, error)
	GetPositions(ctx context.Context, market domain.Market) ([]domain.Position, error)
	GetAccountTrades(ctx context.Context, symbol string) ([]domain.Fill, error)
	GetAccountSummary(ctx context.Context) (domain.AccountSummary, error)

	// 거래 기능
	PlaceMarketOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
}

// Factory는 계정별 Gateway를 제공합니다.
type Factory interface {
	ForAccount(ctx context.Context, acc domain.AccountConfig) (Gateway, error)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest는 시장가 주문 요청 정보를 표현합니다
type OrderRequest struct {
	Market        Market          // 선물/현물
	Symbol        string          // 심볼 (예: BTCUSDT)
	Side          OrderSide       // 매수/매도
	Quantity      decimal.Decimal // 스텝 사이즈와 정밀도에 맞춰 내림된 수량
	ReduceOnly    bool            // 선물 전용, 포지션 축소만 허용
	ClientOrderID string          // 재시도 시에도 유지되는 클라이언트 주문 ID
}

// OrderResponse는 주문 응답을 표현합니다
type OrderResponse struct {
	OrderID          int64     // 주문 ID
	Symbol           string    // 심볼
	Status           string    // 거래소 주문 상태
	ClientOrderID    string    // 클라이언트 측 주문 ID
	AvgPrice         float64   // 평균 체결 가격
	OrigQuantity     float64   // 원래 주문 수량
	ExecutedQuantity float64   // 체결된 수량
	Side             OrderSide // 매수/매도
	CreateTime       time.Time // 주문 생성 시간
}

// Position은 거래소가 보고한 포지션 정보를 표현합니다
type Position struct {
	Symbol        string  `json:"symbol"`         // 심볼 (예: BTCUSDT)
	Quantity      float64 `json:"quantity"`       // 포지션 수량 (양수: 롱, 음수: 숏)
	EntryPrice    float64 `json:"entry_price"`    // 평균 진입가
	MarkPrice     float64 `json:"mark_price"`     // 마크 가격
	UnrealizedPnL float64 `json:"unrealized_pnl"` // 미실현 손익
	Leverage      int     `json:"leverage"`       // 레버리지
}

// Fill은 거래소 체결 내역 한 건입니다
type Fill struct {
	OrderID     int64
	Symbol      string
	Side        OrderSide
	Quantity    float64
	Price       float64
	RealizedPnL float64
	Time        time.Time
}

// SymbolFilters는 수량 계산에 필요한 심볼 제약 조건입니다
type SymbolFilters struct {
	Symbol      string  // 심볼 이름
	StepSize    float64 // 수량 최소 단위 (예: 0.001)
	Precision   int     // 수량 소수점 자릿수
	MinNotional float64 // 거래소가 보고한 최소 주문 가치
}

// PendingOrder는 복제 엔진이 발주한 뒤 정산 전까지 추적하는 주문입니다
type PendingOrder struct {
	OrderID       string      `json:"order_id"`
	ClientOrderID string      `json:"client_order_id"`
	UserID        string      `json:"user_id"`
	Market        Market      `json:"market"`
	Symbol        string      `json:"symbol"`
	Side          OrderSide   `json:"side"`
	OrderType     OrderType   `json:"order_type"`
	Price         float64     `json:"price"`
	Quantity      float64     `json:"quantity"`
	SizeUSDT      float64     `json:"size_usdt"`
	Status        OrderStatus `json:"status"`
	Time          time.Time   `json:"time"`
	Active        bool        `json:"active"`
}

// ClosedPosition은 청산 체결로 확정된 실현 손익 기록입니다
type ClosedPosition struct {
	ID          int64     `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	Symbol      string    `json:"symbol"`
	Quantity    float64   `json:"quantity"`
	SizeUSDT    float64   `json:"size_usdt"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	RealizedPnL float64   `json:"realized_pnl"`
	CloseTime   time.Time `json:"close_time"`
}

package domain

import "strings"

// Market는 주문이 전달될 시장을 정의합니다
type Market string

const (
	Futures Market = "futures"
	Spot    Market = "spot"
)

// ParseMarket은 대소문자를 구분하지 않고 시장 값을 해석합니다
func ParseMarket(s string) (Market, bool) {
	switch Market(strings.ToLower(strings.TrimSpace(s))) {
	case Futures:
		return Futures, true
	case Spot:
		return Spot, true
	default:
		return "", false
	}
}

// Action은 시그널이 요구하는 동작을 정의합니다
type Action string

const (
	ActionTrade    Action = "trade"
	ActionClose    Action = "close"
	ActionCloseAll Action = "close_all"
)

// ParseAction은 대소문자를 구분하지 않고 동작 값을 해석합니다
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionTrade:
		return ActionTrade, true
	case ActionClose:
		return ActionClose, true
	case ActionCloseAll:
		return ActionCloseAll, true
	default:
		return "", false
	}
}

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// ParseSide는 "buy"/"sell" 입력을 주문 방향으로 변환합니다
func ParseSide(s string) (OrderSide, bool) {
	switch OrderSide(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, true
	case Sell:
		return Sell, true
	default:
		return "", false
	}
}

// Opposite는 반대 방향을 반환합니다
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ExitSide는 부호 있는 포지션 수량을 청산하기 위한 주문 방향을 반환합니다
func ExitSide(positionAmt float64) OrderSide {
	if positionAmt > 0 {
		return Sell
	}
	return Buy
}

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	MarketOrder OrderType = "MARKET"
	LimitOrder  OrderType = "LIMIT"
)

// OrderStatus는 로컬에서 추적하는 주문 상태입니다
type OrderStatus string

const (
	StatusNew      OrderStatus = "NEW"
	StatusFilled   OrderStatus = "FILLED"
	StatusCanceled OrderStatus = "CANCELED"
)

// StatusFromExchange는 거래소 주문 상태를 로컬 상태로 변환합니다.
// 시장가 주문은 즉시 체결되므로 거절/만료/취소가 아니면 FILLED로 기록합니다.
func StatusFromExchange(status string) OrderStatus {
	switch strings.ToUpper(status) {
	case "CANCELED", "EXPIRED", "REJECTED", "EXPIRED_IN_MATCH":
		return StatusCanceled
	default:
		return StatusFilled
	}
}

package domain

import (
	"fmt"
	"strings"
)

// Signal은 모든 하위 계정에 복제될 외부 트레이딩 시그널입니다
type Signal struct {
	Action     Action    // trade, close, close_all
	Market     Market    // futures, spot
	Symbol     string    // close_all을 제외하면 필수
	Side       OrderSide // trade 전용
	SizePct    float64   // trade 전용, 잔고 대비 비율 (0, 100]
	Percentage float64   // close 전용, 청산 비율 (0, 100]
}

// Normalize는 심볼을 대문자로 정리한 복사본을 반환합니다
func (s Signal) Normalize() Signal {
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	return s
}

// Validate는 계정에 손대기 전에 시그널 형태를 검증합니다
func (s Signal) Validate() error {
	if s.Market != Futures && s.Market != Spot {
		return NewValidationError("market", fmt.Sprintf("지원하지 않는 시장: %q", s.Market))
	}

	switch s.Action {
	case ActionTrade:
		if s.Symbol == "" {
			return NewValidationError("symbol", "비어 있을 수 없습니다")
		}
		if s.Side != Buy && s.Side != Sell {
			return NewValidationError("side", "buy 또는 sell이어야 합니다")
		}
		if !validPct(s.SizePct) {
			return NewValidationError("size", "0 초과 100 이하여야 합니다")
		}
	case ActionClose:
		if s.Symbol == "" {
			return NewValidationError("symbol", "비어 있을 수 없습니다")
		}
		if !validPct(s.Percentage) {
			return NewValidationError("percentage", "0 초과 100 이하여야 합니다")
		}
	case ActionCloseAll:
	default:
		return NewValidationError("action", fmt.Sprintf("지원하지 않는 동작: %q", s.Action))
	}

	return nil
}

func validPct(v float64) bool {
	return v > 0 && v <= 100
}

package notification

import (
	"context"

	"github.com/assist-by/replica/internal/domain"
)

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0099FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendBatch는 시그널 복제 결과 요약을 전송합니다
	SendBatch(ctx context.Context, batch BatchSummary) error

	// SendClosure는 정산으로 확정된 청산 기록을 전송합니다
	SendClosure(ctx context.Context, closed domain.ClosedPosition) error

	// SendError는 에러 알림을 전송합니다
	SendError(ctx context.Context, err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(ctx context.Context, message string) error
}

// BatchSummary는 시그널 하나의 계정별 처리 결과 요약입니다
type BatchSummary struct {
	BatchID  string
	Action   domain.Action
	Market   domain.Market
	Symbol   string
	Side     domain.OrderSide
	Placed   int
	Skipped  int
	Failures []Failure
}

// Failure는 실패한 계정 하나입니다
type Failure struct {
	UserID string
	Symbol string
	Reason string
}

// GetColorForBatch는 실패 여부에 따른 색상을 반환합니다
func GetColorForBatch(b BatchSummary) int {
	switch {
	case len(b.Failures) > 0 && b.Placed == 0:
		return ColorError
	case len(b.Failures) > 0:
		return ColorWarning
	case b.Placed == 0:
		return ColorInfo
	default:
		return ColorSuccess
	}
}

// Nop은 아무 것도 전송하지 않는 Notifier입니다. 웹훅이 설정되지 않았을 때 사용합니다
type Nop struct{}

func (Nop) SendBatch(context.Context, BatchSummary) error { return nil }
func (Nop) SendClosure(context.Context, domain.ClosedPosition) error { return nil }
func (Nop) SendError(context.Context, error) error { return nil }
func (Nop) SendInfo(context.Context, string) error { return nil }

package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "레이트 리밋 429", err: NewAPIError("가격 조회", http.StatusTooManyRequests, 0, "too many"), want: true},
		{name: "가중치 초과 코드", err: NewAPIError("가격 조회", http.StatusBadRequest, CodeTooManyRequests, "weight"), want: true},
		{name: "타임스탬프 오류", err: NewAPIError("주문 실행", http.StatusBadRequest, CodeTimestamp, "ahead"), want: true},
		{name: "서버 오류 503", err: NewAPIError("주문 실행", http.StatusServiceUnavailable, 0, "busy"), want: true},
		{name: "잘못된 API 키", err: NewAPIError("잔고 조회", http.StatusUnauthorized, CodeInvalidAPIKey, "bad key"), want: false},
		{name: "잘못된 심볼", err: NewAPIError("가격 조회", http.StatusBadRequest, CodeInvalidSymbol, "bad symbol"), want: false},
		{name: "기타 4xx", err: NewAPIError("주문 실행", http.StatusBadRequest, -4164, "notional"), want: false},
		{name: "전송 오류", err: NewTransportError("가격 조회", errors.New("connection reset")), want: true},
		{name: "호출자 취소", err: NewTransportError("가격 조회", context.Canceled), want: false},
		{name: "래핑된 취소", err: fmt.Errorf("감싸기: %w", context.Canceled), want: false},
		{name: "데드라인 초과", err: context.DeadlineExceeded, want: true},
		{name: "유효하지 않은 가격", err: fmt.Errorf("BTCUSDT: %w", ErrInvalidPrice), want: true},
		{name: "분류 불가 에러", err: errors.New("unknown"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(NewAPIError("잔고 조회", http.StatusUnauthorized, CodeRejectedAPIKey, "rejected")))
	assert.True(t, IsAuthError(fmt.Errorf("wrap: %w", NewAPIError("잔고 조회", http.StatusForbidden, 0, "forbidden"))))
	assert.False(t, IsAuthError(NewAPIError("잔고 조회", http.StatusTooManyRequests, 0, "slow down")))
	assert.False(t, IsAuthError(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	err := NewAPIError("주문 실행", http.StatusBadRequest, CodeInvalidSymbol, "Invalid symbol.")
	assert.Contains(t, err.Error(), "-1121")
	assert.Contains(t, err.Error(), "주문 실행")
}

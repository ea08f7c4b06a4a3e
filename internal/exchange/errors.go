package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// 바이낸스 에러 코드 중 분류에 사용하는 값들입니다
const (
	CodeUnknown          = -1000
	CodeDisconnected     = -1001
	CodeTooManyRequests  = -1003
	CodeTimeout          = -1007
	CodeTimestamp        = -1021
	CodeInvalidSignature = -1022
	CodeInvalidSymbol    = -1121
	CodeInvalidAPIKey    = -2014
	CodeRejectedAPIKey   = -2015
)

// ErrInvalidPrice는 거래소가 0 이하의 가격을 보고했을 때 반환됩니다 (재시도 대상)
var ErrInvalidPrice = errors.New("유효하지 않은 가격")

// Error는 거래소 호출 실패를 표현합니다
type Error struct {
	Op        string // 수행한 작업 (예: "주문 실행")
	Status    int    // HTTP 상태 코드, 전송 오류면 0
	Code      int    // 바이낸스 에러 코드
	Msg       string // 거래소 메시지
	Retryable bool
	Err       error
}

// Error는 error 인터페이스를 구현합니다
func (e *Error) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("거래소 에러 [작업: %s, HTTP %d, 코드: %d]: %s", e.Op, e.Status, e.Code, e.Msg)
	case e.Status != 0:
		return fmt.Sprintf("거래소 에러 [작업: %s, HTTP %d]: %s", e.Op, e.Status, e.Msg)
	default:
		return fmt.Sprintf("거래소 에러 [작업: %s]: %v", e.Op, e.Err)
	}
}

// Unwrap은 내부 에러를 반환합니다
func (e *Error) Unwrap() error {
	return e.Err
}

// NewAPIError는 HTTP 응답으로부터 분류된 Error를 생성합니다
func NewAPIError(op string, status, code int, msg string) *Error {
	return &Error{
		Op:        op,
		Status:    status,
		Code:      code,
		Msg:       msg,
		Retryable: classifyAPI(status, code),
	}
}

// NewTransportError는 네트워크 수준 실패로부터 Error를 생성합니다
func NewTransportError(op string, err error) *Error {
	return &Error{
		Op:        op,
		Err:       err,
		Retryable: !errors.Is(err, context.Canceled),
	}
}

func classifyAPI(status, code int) bool {
	switch code {
	case CodeInvalidAPIKey, CodeRejectedAPIKey, CodeInvalidSignature, CodeInvalidSymbol:
		return false
	case CodeUnknown, CodeDisconnected, CodeTooManyRequests, CodeTimeout, CodeTimestamp:
		return true
	}

	switch {
	case status == http.StatusTooManyRequests, status == http.StatusTeapot:
		return true
	case status >= 500:
		return true
	default:
		// 401/403 및 나머지 4xx는 잘못된 요청이나 인증 실패입니다
		return false
	}
}

// IsRetryable은 재시도해도 되는 에러인지 판별합니다.
// 타임아웃, 레이트 리밋, 일시적 네트워크 오류는 재시도 대상이고
// 인증 실패, 잘못된 요청, 호출자 취소는 즉시 반환됩니다.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var exErr *Error
	if errors.As(err, &exErr) {
		return exErr.Retryable
	}

	if errors.Is(err, ErrInvalidPrice) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsAuthError는 자격 증명 문제로 인한 실패인지 확인합니다
func IsAuthError(err error) bool {
	var exErr *Error
	if !errors.As(err, &exErr) {
		return false
	}
	switch exErr.Code {
	case CodeInvalidAPIKey, CodeRejectedAPIKey, CodeInvalidSignature:
		return true
	}
	return exErr.Status == http.StatusUnauthorized || exErr.Status == http.StatusForbidden
}

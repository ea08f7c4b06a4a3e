package domain

import (
	"errors"
	"fmt"
)

// 도메인 전반에서 errors.Is로 판별하는 에러들입니다
var (
	ErrValidation   = errors.New("유효하지 않은 요청")
	ErrNotFound     = errors.New("찾을 수 없음")
	ErrUnauthorized = errors.New("인증 실패")
)

// ValidationError는 잘못된 입력 필드를 설명합니다
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError는 새로운 ValidationError를 생성합니다
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is는 errors.Is(err, ErrValidation)을 지원합니다
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError는 존재하지 않는 엔티티를 가리킵니다
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Kind, e.ID, ErrNotFound)
}

// Unwrap은 ErrNotFound를 반환합니다
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

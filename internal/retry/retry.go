package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/replica/internal/exchange"
)

// Policy는 거래소 호출을 감싸는 재시도 정책입니다
type Policy struct {
	MaxRetries int           // 최대 재시도 횟수 (첫 시도 제외)
	BaseDelay  time.Duration // 첫 재시도 전 대기 시간
	MaxDelay   time.Duration // 최대 대기 시간
	Factor     float64       // 대기 시간 증가 배수

	// Classify는 재시도 가능한 에러인지 판별합니다. nil이면 exchange.IsRetryable을 사용합니다
	Classify func(error) bool
	// Sleep은 대기 함수입니다. 테스트에서 교체할 수 있습니다
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *zap.Logger
}

// DefaultPolicy는 기본 재시도 정책을 반환합니다 (3회, 1s부터 2배씩, 최대 30s)
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Factor:     2,
	}
}

// ExhaustedError는 재시도 가능한 에러가 최대 횟수를 넘겼을 때 반환됩니다
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s 실패 (최대 재시도 횟수 초과, 시도 %d회): %v", e.Op, e.Attempts, e.Err)
}

// Unwrap은 마지막 에러를 반환합니다
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do는 fn을 실행하고 재시도 가능한 에러일 때 지수 백오프로 다시 시도합니다
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value는 값을 반환하는 호출에 재시도 정책을 적용합니다
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	classify := p.Classify
	if classify == nil {
		classify = exchange.IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	delay := p.BaseDelay
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !classify(err) {
			return zero, err
		}

		if attempt == p.MaxRetries {
			break
		}

		log.Warn("재시도 예정",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", p.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}

		delay = p.next(delay)
	}

	return zero, &ExhaustedError{Op: op, Attempts: p.MaxRetries + 1, Err: lastErr}
}

func (p Policy) next(d time.Duration) time.Duration {
	factor := p.Factor
	if factor <= 1 {
		factor = 2
	}
	d = time.Duration(float64(d) * factor)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용할 수 있게 합니다
type TaskFunc func(ctx context.Context) error

// Execute는 Task 인터페이스를 구현합니다
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Scheduler는 정해진 간격으로 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	name     string
	interval time.Duration
	task     Task
	log      *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(name string, interval time.Duration, task Task, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		log:      log.With(zap.String("task", name)),
		stopCh:   make(chan struct{}),
	}
}

// Start는 ctx가 취소되거나 Stop이 호출될 때까지 작업을 반복 실행합니다.
// 실행 시각은 interval 경계에 맞춰지며 작업 중에는 취소를 확인하지 않습니다.
func (s *Scheduler) Start(ctx context.Context) error {
	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	s.log.Info("스케줄러 시작", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("스케줄러 종료")
			return ctx.Err()

		case <-s.stopCh:
			s.log.Info("스케줄러 중지")
			return nil

		case <-timer.C:
			// 작업 실행
			start := time.Now()
			if err := s.task.Execute(ctx); err != nil {
				// 에러가 발생해도 계속 실행
				s.log.Error("작업 실행 실패", zap.Error(err))
			} else {
				s.log.Debug("작업 실행 완료", zap.Duration("elapsed", time.Since(start)))
			}

			timer.Reset(s.untilNext())
		}
	}
}

// Stop은 스케줄러를 중지합니다. 여러 번 호출해도 안전합니다
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// untilNext는 다음 interval 경계까지 남은 시간을 반환합니다
func (s *Scheduler) untilNext() time.Duration {
	now := time.Now()
	return now.Truncate(s.interval).Add(s.interval).Sub(now)
}

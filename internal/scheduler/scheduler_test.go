package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsUntilCanceled(t *testing.T) {
	var runs int32
	task := TaskFunc(func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("계속 실행되어야 함")
	})

	s := NewScheduler("test", 10*time.Millisecond, task, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("스케줄러가 종료되지 않음")
	}
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler("test", time.Hour, TaskFunc(func(context.Context) error { return nil }), nil)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("스케줄러가 중지되지 않음")
	}
}

package workerpool

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolRunsAllTasksToSuccess(t *testing.T) {
	p := New(3, nil, nil)
	var ran int32
	for i := 0; i < 10; i++ {
		accepted := p.Push(func(_ *TaskContext) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		require.True(t, accepted)
	}
	require.Equal(t, Success, p.Complete())
	require.Equal(t, int32(10), atomic.LoadInt32(&ran))
}

func TestPoolFailurePropagatesAndInterrupts(t *testing.T) {
	p := New(2, nil, nil)
	boom := errors.New("boom")

	require.True(t, p.Push(func(_ *TaskContext) error { return boom }))

	for i := 0; i < 50; i++ {
		p.Push(func(ctx *TaskContext) error {
			if ctx.Cancelled() {
				return nil
			}
			return nil
		})
	}

	state := p.Complete()
	require.Equal(t, RaisedException, state)
	require.ErrorIs(t, p.Err(), boom)
}

func TestPoolInterruptUnblocksPush(t *testing.T) {
	p := New(1, nil, nil)
	block := make(chan struct{})
	require.True(t, p.Push(func(_ *TaskContext) error {
		<-block
		return nil
	}))

	p.Interrupt()
	accepted := p.Push(func(_ *TaskContext) error { return nil })
	require.False(t, accepted)

	close(block)
	require.Equal(t, Interrupted, p.Complete())
}

func TestWorkerInitDisposeCalledOncePerWorker(t *testing.T) {
	var inits, disposes int32
	init := func(_ int) (any, error) {
		atomic.AddInt32(&inits, 1)
		return nil, nil
	}
	dispose := func(_ int, _ any) {
		atomic.AddInt32(&disposes, 1)
	}
	p := New(4, init, dispose)
	require.Equal(t, Success, p.Complete())
	require.Equal(t, int32(4), atomic.LoadInt32(&inits))
	require.Equal(t, int32(4), atomic.LoadInt32(&disposes))
}

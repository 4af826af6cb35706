package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsEveryTaskBeforeClose(t *testing.T) {
	p := NewPool(3, 100, nil)

	var n atomic.Int32
	for i := 0; i < 50; i++ {
		require.NoError(t, p.Submit(func(context.Context) { n.Add(1) }))
	}
	p.Close()

	assert.Equal(t, int32(50), n.Load())
}

func TestPool_FullQueueDoesNotBlock(t *testing.T) {
	p := NewPool(1, 1, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, p.Submit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, p.Submit(func(context.Context) {}))

	done := make(chan error, 1)
	go func() { done <- p.Submit(func(context.Context) {}) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(release)
	p.Close()
}

func TestNewPool_NonPositiveSizeUsesDefault(t *testing.T) {
	for _, size := range []int{0, -3} {
		p := NewPool(1, size, nil)
		assert.Equal(t, DefaultQueueSize, cap(p.tasks))

		release := make(chan struct{})
		require.NoError(t, p.Submit(func(context.Context) { <-release }))
		// the worker is busy; the next tasks must be buffered, not rejected
		assert.NoError(t, p.Submit(func(context.Context) {}))
		assert.NoError(t, p.Submit(func(context.Context) {}))

		close(release)
		p.Close()
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := NewPool(1, 1, nil)
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Submit(func(context.Context) {}), ErrClosed)
}

func TestPool_RecoversPanics(t *testing.T) {
	p := NewPool(1, 4, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(func(context.Context) { panic("boom") }))
	require.NoError(t, p.Submit(func(context.Context) { wg.Done() }))

	wg.Wait()
	p.Close()
}

func TestInline(t *testing.T) {
	ran := false
	var e Executor = Inline{}
	require.NoError(t, e.Submit(func(ctx context.Context) {
		ran = true
		assert.NoError(t, ctx.Err())
	}))
	assert.True(t, ran)
}

package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewPool(t *testing.T) {
	p := NewPool(4, logrus.New())
	assert.Equal(t, 4, p.Size())

	// Invalid sizes fall back to a single worker.
	assert.Equal(t, 1, NewPool(0, nil).Size())
	assert.Equal(t, 1, NewPool(-3, nil).Size())
}

func TestPool_RunsAllJobs(t *testing.T) {
	p := NewPool(4, logrus.New())

	var mu sync.Mutex
	seen := make(map[int]bool)
	p.Run(context.Background(), 20, func(ctx context.Context, i int) {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
	})

	assert.Len(t, seen, 20)
	for i := 0; i < 20; i++ {
		assert.True(t, seen[i])
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const size = 3
	p := NewPool(size, logrus.New())

	var inFlight, peak int64
	p.Run(context.Background(), 30, func(ctx context.Context, i int) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
	})

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(size))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(0))
}

func TestPool_ZeroJobs(t *testing.T) {
	p := NewPool(4, logrus.New())

	called := false
	p.Run(context.Background(), 0, func(ctx context.Context, i int) {
		called = true
	})
	assert.False(t, called)
}

func TestPool_CancelledContextStopsDispatch(t *testing.T) {
	p := NewPool(1, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	var executed int64
	p.Run(ctx, 50, func(ctx context.Context, i int) {
		atomic.AddInt64(&executed, 1)
		if i == 0 {
			cancel()
		}
		time.Sleep(time.Millisecond)
	})

	assert.Less(t, atomic.LoadInt64(&executed), int64(50))
}

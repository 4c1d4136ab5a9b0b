package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Pool runs independent lookups with a fixed number of concurrent workers.
// Results are written by index so callers keep input ordering without any
// cross-goroutine coordination of their own.
type Pool struct {
	size   int
	logger *logrus.Logger
}

// NewPool creates a pool with the specified number of workers
func NewPool(size int, logger *logrus.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Pool{
		size:   size,
		logger: logger,
	}
}

// Size returns the number of concurrent workers
func (p *Pool) Size() int {
	return p.size
}

// Run invokes fn for every index in [0, n), with at most p.size invocations
// in flight at once. It blocks until all invocations finish. Indexes not yet
// dispatched are dropped once ctx is cancelled; in-flight invocations observe
// cancellation through the ctx passed to fn.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := p.size
	if workers > n {
		workers = n
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(ctx, i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			p.logger.WithError(ctx.Err()).WithField("remaining", n-i).Debug("Pool run cancelled")
			close(jobs)
			wg.Wait()
			return
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

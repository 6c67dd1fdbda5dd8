// Package worker runs per-row pipeline tasks on a bounded pool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/medalist/pkg/logger"
	"github.com/okian/medalist/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultTaskTimeout      = 30 * time.Second
)

// ErrCanceled is returned by Run when cancellation left tasks undispatched.
var ErrCanceled = errors.New("batch canceled")

// Task processes item i. The context it receives is detached from the
// caller's cancellation so a started task can finish its writes; it is
// bounded by the pool's task timeout instead.
type Task func(ctx context.Context, i int)

// Stats reports how many tasks a Run dispatched and skipped.
type Stats struct {
	Dispatched int
	Skipped    int
}

// Pool bounds the number of tasks running at once.
type Pool struct {
	size        int
	taskTimeout time.Duration
	name        string
	logger      logger.Logger
}

// NewPool creates a pool. The default size scales with the CPU count.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		size:        runtime.NumCPU() * defaultWorkerMultiplier,
		taskTimeout: defaultTaskTimeout,
		name:        "rows",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker")
	}
	metrics.UpdateWorkerCount(p.size)
	return p
}

// Size returns the maximum number of concurrent tasks.
func (p *Pool) Size() int { return p.size }

// Run calls task for every i in [0, n) with at most Size tasks in flight
// and waits for all started tasks. Once ctx is done no further task starts;
// tasks already running are allowed to finish. In that case Run returns
// ErrCanceled wrapping the context error.
func (p *Pool) Run(ctx context.Context, n int, task Task) (Stats, error) {
	var (
		g          errgroup.Group
		dispatched atomic.Int64
	)
	g.SetLimit(p.size)
	detached := context.WithoutCancel(ctx)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			// The slot may have opened after cancellation.
			if ctx.Err() != nil {
				return nil
			}
			dispatched.Add(1)
			p.runTask(detached, i, task)
			return nil
		})
	}
	g.Wait()

	stats := Stats{Dispatched: int(dispatched.Load())}
	stats.Skipped = n - stats.Dispatched
	if stats.Skipped > 0 {
		metrics.RecordWorkerSkipped(stats.Skipped)
		p.logger.Warn(ctx, "batch canceled before all rows were dispatched",
			logger.String("pool", p.name),
			logger.Int("dispatched", stats.Dispatched),
			logger.Int("skipped", stats.Skipped))
		return stats, fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx))
	}
	return stats, nil
}

func (p *Pool) runTask(ctx context.Context, i int, task Task) {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	ctx, cancel := context.WithTimeout(ctx, p.taskTimeout)
	defer cancel()
	task(ctx, i)
}

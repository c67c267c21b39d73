// Package background runs best-effort side effects and periodic sweeps.
// A task's failure is logged and never reaches the operation that spawned it.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is one best-effort unit of work.
type Task func(ctx context.Context) error

// Runner tracks in-flight tasks so shutdown can drain them.
type Runner struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRunner creates a runner whose tasks are each bounded by timeout.
func NewRunner(timeout time.Duration, logger zerolog.Logger) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		timeout: timeout,
		logger:  logger.With().Str("component", "background").Logger(),
	}
}

// Go starts task detached from ctx's cancellation but keeping its values.
func (r *Runner) Go(ctx context.Context, name string, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		if err := r.run(taskCtx, task); err != nil {
			r.logger.Warn().Err(err).Str("task", name).Msg("best-effort task failed")
		}
	}()
}

// Every runs task on a ticker until ctx is done.
func (r *Runner) Every(ctx context.Context, name string, interval time.Duration, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.run(ctx, task); err != nil {
					r.logger.Warn().Err(err).Str("task", name).Msg("periodic task failed")
				}
			}
		}
	}()
}

// Wait blocks until every started task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return task(ctx)
}

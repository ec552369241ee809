package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"searchrank/internal/metrics"
)

// Task is a detached unit of work.
type Task func(ctx context.Context) error

// Dispatcher runs fire-and-forget background tasks.
//
// Tasks get their own context, independent of the caller's request, bounded
// by the dispatcher timeout. Results are never returned to the caller: a
// failed task is logged and counted, and is not retried. Tasks dispatched in
// sequence may complete in any order.
type Dispatcher struct {
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher whose tasks time out after timeout.
func NewDispatcher(timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{timeout: timeout, logger: logger}
}

// Go starts task in the background and returns immediately.
func (d *Dispatcher) Go(name string, task Task) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		start := time.Now()
		if err := d.run(task); err != nil {
			metrics.BackgroundTaskFailures.WithLabelValues(name).Inc()
			d.logger.Error("background task failed", "task", name, "duration", time.Since(start), "error", err)
			return
		}
		d.logger.Debug("background task completed", "task", name, "duration", time.Since(start))
	}()
}

func (d *Dispatcher) run(task Task) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}

// Wait blocks until all dispatched tasks finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/metrics"
)

// ErrBusy signals that a run already holds the cycle lock.
var ErrBusy = errors.New("pipeline: run already in progress")

// Job is one pipeline run. Errors are logged, never fatal to scheduling.
type Job func(ctx context.Context) error

// Cycle drives one job on a fixed interval without overlap: the next wait
// starts only after the previous run finished, success or failure, and a
// binary lock serializes interval runs against operator-triggered ones.
type Cycle struct {
	name     string
	interval time.Duration
	job      Job

	mu sync.Mutex
}

func NewCycle(name string, interval time.Duration, job Job) *Cycle {
	return &Cycle{name: name, interval: interval, job: job}
}

// Start blocks until the context is cancelled. Each iteration waits the
// full interval, then runs; a run that takes longer than the interval
// simply delays the next one.
func (c *Cycle) Start(ctx context.Context) {
	slog.Info("pipeline cycle started", "pipeline", c.name, "interval", c.interval)

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pipeline cycle stopped", "pipeline", c.name)
			return
		case <-timer.C:
			c.RunOnce(ctx)
			timer.Reset(c.interval)
		}
	}
}

// RunOnce executes the job under the cycle's lock, recovering panics so a
// bad run never kills future scheduling.
func (c *Cycle) RunOnce(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	outcome := "ok"

	func() {
		defer func() {
			if r := recover(); r != nil {
				outcome = "panic"
				slog.Error("pipeline run panicked", "pipeline", c.name, "panic", r)
			}
		}()

		if err := c.job(ctx); err != nil {
			outcome = "error"
			slog.Error("pipeline run failed", "pipeline", c.name, "error", err)
		}
	}()

	metrics.PipelineRuns.WithLabelValues(c.name, outcome).Inc()
	slog.Info("pipeline run finished", "pipeline", c.name, "outcome", outcome, "duration", time.Since(start))
}

// TryRun executes fn under the cycle lock, failing fast with ErrBusy
// when a scheduled run is in flight. Operator-triggered stages go
// through here so they never race an interval run.
func (c *Cycle) TryRun(ctx context.Context, fn Job) error {
	if !c.mu.TryLock() {
		return ErrBusy
	}
	defer c.mu.Unlock()
	return fn(ctx)
}

// Scheduler owns the two independent cycles: the summary pipeline
// (crawl, validate, translate) and the digest pipeline (digest, post).
type Scheduler struct {
	summary *Cycle
	digest  *Cycle
}

func NewScheduler(summary, digest *Cycle) *Scheduler {
	return &Scheduler{summary: summary, digest: digest}
}

// Start runs both cycles until cancellation and waits for them to drain.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.summary.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		s.digest.Start(ctx)
	}()

	wg.Wait()
}

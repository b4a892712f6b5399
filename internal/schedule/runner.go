// Package schedule is a minimal fixed-interval job runner. The jobs it
// drives (reconciliation, due reminders) know nothing about scheduling;
// they are plain functions handed a context.
package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Job is a unit of periodic work. Errors are logged, not fatal: the next
// tick runs regardless.
type Job func(ctx context.Context) error

// Runner invokes a job at a fixed interval until its context is cancelled.
type Runner struct {
	Name     string
	Interval time.Duration
	Job      Job

	// Immediate runs the job once at start instead of waiting a full
	// interval for the first run.
	Immediate bool
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if r.Immediate {
		r.invoke(ctx)
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("job runner stopped", "job", r.Name)
			return
		case <-ticker.C:
			r.invoke(ctx)
		}
	}
}

func (r *Runner) invoke(ctx context.Context) {
	start := time.Now()
	if err := r.Job(ctx); err != nil {
		slog.Error("job failed", "job", r.Name, "error", err, "duration", time.Since(start).Round(time.Millisecond))
		return
	}
	slog.Info("job finished", "job", r.Name, "duration", time.Since(start).Round(time.Millisecond))
}

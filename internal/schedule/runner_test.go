package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerImmediate(t *testing.T) {
	var runs atomic.Int64
	r := &Runner{
		Name:      "test",
		Interval:  time.Hour,
		Immediate: true,
		Job: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// The interval is an hour, so the only run within the deadline is the
	// immediate one.
	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("immediate run never happened")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}

	if got := runs.Load(); got != 1 {
		t.Errorf("expected exactly 1 run, got %d", got)
	}
}

func TestRunnerTicks(t *testing.T) {
	var runs atomic.Int64
	r := &Runner{
		Name:     "test",
		Interval: 20 * time.Millisecond,
		Job: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 ticks, got %d", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunnerSurvivesJobErrors(t *testing.T) {
	var runs atomic.Int64
	r := &Runner{
		Name:     "test",
		Interval: 20 * time.Millisecond,
		Job: func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("runner stopped after a failing job, got %d runs", runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

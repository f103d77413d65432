package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// IntervalFunc returns the delay before the next run. It is re-read after every run,
// so a changed interval applies from the next boundary on.
type IntervalFunc func() time.Duration

// Every runs task immediately and then again after each delay, until ctx is done.
// Runs never overlap: the delay starts when the previous run has returned.
// A failing or panicking run is logged and does not stop the loop.
func Every(ctx context.Context, interval IntervalFunc, task Task) {
	for {
		if err := RunOnce(ctx, task); err != nil {
			slog.Error("scheduled task failed", "task", task.Name(), "error", err)
		}

		delay := interval()
		if delay <= 0 {
			delay = time.Second
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("scheduled task stopped", "task", task.Name())
			return
		case <-timer.C:
		}
	}
}

// RunOnce runs the task and converts a panic into an error.
func RunOnce(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v\n%s", task.Name(), r, debug.Stack())
		}
	}()
	return task.Run(ctx)
}

package tasks

import (
	"context"
	"log/slog"
	"time"
)

// Runner executes tasks one after another, retrying those that allow it with
// exponential backoff.
type Runner struct {
	taskTimeout time.Duration
	baseDelay   time.Duration
}

func NewRunner(taskTimeout time.Duration) *Runner {
	return &Runner{
		taskTimeout: taskTimeout,
		baseDelay:   time.Second,
	}
}

// Run executes a single task and returns its final error.
func (r *Runner) Run(ctx context.Context, task TaskInterface) error {
	task.Start()

	for {
		err := r.executeTask(ctx, task)
		if err == nil {
			return nil
		}

		if !task.CanRetry() || ctx.Err() != nil {
			slog.Error("Task failed", append(task.LogAttrs(), "error", err)...)
			return err
		}

		task.IncrementRetryCount()
		retryDelay := task.RetryDelay(r.baseDelay)

		slog.Warn("Task retry scheduled", append(task.LogAttrs(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String(), "error", err)...)

		timer := time.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Debug("Context cancelled, skipping task retry", task.LogAttrs()...)
			return err
		case <-timer.C:
		}
	}
}

// RunAll runs every task even when some fail and returns the number of
// failed tasks. Tasks not started because ctx ended count as failed.
func (r *Runner) RunAll(ctx context.Context, tasks []TaskInterface) int {
	failed := 0
	for i, task := range tasks {
		if ctx.Err() != nil {
			remaining := len(tasks) - i
			slog.Warn("Context cancelled, skipping remaining tasks", "remaining", remaining)
			return failed + remaining
		}
		if err := r.Run(ctx, task); err != nil {
			failed++
		}
	}
	return failed
}

func (r *Runner) executeTask(ctx context.Context, task TaskInterface) error {
	if r.taskTimeout <= 0 {
		return task.Execute(ctx)
	}

	taskCtx, cancel := context.WithTimeout(ctx, r.taskTimeout)
	defer cancel()

	return task.Execute(taskCtx)
}

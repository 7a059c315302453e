package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/site-sync/app/pipeline"
)

// PrepareFunc runs before the pipeline, e.g. to resolve a bookshelf. An
// error aborts the task before any chat history is fetched.
type PrepareFunc func(ctx context.Context) error

type SyncTask struct {
	Task
	Summary  *pipeline.Summary
	pipeline SyncPipeline
	prepare  PrepareFunc
}

func NewSyncTask(taskType TaskType, p SyncPipeline, prepare PrepareFunc) *SyncTask {
	return &SyncTask{
		Task:     NewTask(taskType, p.Name(), 0),
		pipeline: p,
		prepare:  prepare,
	}
}

func (t *SyncTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.prepare != nil {
		if err := t.prepare(ctx); err != nil {
			return fmt.Errorf("failed to prepare %s: %w", t.Name, err)
		}
	}

	summary, err := t.pipeline.Run(ctx)
	t.Summary = summary
	if err != nil {
		if summary != nil {
			slog.Error("Task failed",
				"type", string(t.Type),
				"pipeline", t.Name,
				"state", summary.State,
				"duration", t.GetDuration(),
				"extracted", summary.Extracted,
				"new", summary.New,
				"succeeded", summary.Succeeded,
				"failed", summary.Failed,
				"skipped", summary.Skipped,
				"error", err)
		}
		return err
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"pipeline", t.Name,
		"duration", t.GetDuration(),
		"extracted", summary.Extracted,
		"new", summary.New,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped)

	return nil
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/site-sync/app/state"
)

type LastfmSnapshotTask struct {
	Task
	user       string
	limit      int
	outputPath string
	fetcher    RecentTracksFetcher
}

func NewLastfmSnapshotTask(user string, limit int, outputPath string, fetcher RecentTracksFetcher) *LastfmSnapshotTask {
	return &LastfmSnapshotTask{
		Task:       NewTask(TaskTypeLastfmSnapshot, "lastfm", DefaultSnapshotRetries),
		user:       user,
		limit:      limit,
		outputPath: outputPath,
		fetcher:    fetcher,
	}
}

func (t *LastfmSnapshotTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	snapshot, err := t.fetcher.RecentTracks(ctx, t.user, t.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch recent tracks: %w", err)
	}

	snapshot.UpdatedAt = time.Now().UTC()

	if err := state.WriteJSON(t.outputPath, snapshot); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"user", t.user,
		"duration", t.GetDuration(),
		"tracks", len(snapshot.Tracks),
		"output", t.outputPath)

	return nil
}

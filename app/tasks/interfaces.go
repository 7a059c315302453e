package tasks

import (
	"context"

	"github.com/lysyi3m/site-sync/app/lastfm"
	"github.com/lysyi3m/site-sync/app/pipeline"
)

// SyncPipeline is one incremental Slack to Micro.blog run.
// Implemented by *pipeline.Pipeline.
type SyncPipeline interface {
	Name() string
	Run(ctx context.Context) (*pipeline.Summary, error)
}

// RecentTracksFetcher is implemented by *lastfm.Client.
type RecentTracksFetcher interface {
	RecentTracks(ctx context.Context, user string, limit int) (*lastfm.Snapshot, error)
}

// FeedFetcher downloads a raw feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

var (
	_ SyncPipeline        = (*pipeline.Pipeline)(nil)
	_ RecentTracksFetcher = (*lastfm.Client)(nil)
)

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/site-sync/app/feed"
	"github.com/lysyi3m/site-sync/app/state"
	"github.com/lysyi3m/site-sync/app/web"
)

type FeedSnapshotTask struct {
	Task
	FeedConfig *feed.Config
	fetcher    FeedFetcher
	parser     *feed.Parser
	filterer   *feed.Filterer
	outputDir  string
}

func NewFeedSnapshotTask(feedConfig *feed.Config, fetcher FeedFetcher, parser *feed.Parser, filterer *feed.Filterer, outputDir string) *FeedSnapshotTask {
	return &FeedSnapshotTask{
		Task:       NewTask(TaskTypeFeedSnapshot, feedConfig.Name, DefaultSnapshotRetries),
		FeedConfig: feedConfig,
		fetcher:    fetcher,
		parser:     parser,
		filterer:   filterer,
		outputDir:  outputDir,
	}
}

func (t *FeedSnapshotTask) OutputPath() string {
	return filepath.Join(t.outputDir, t.Name+".json")
}

func (t *FeedSnapshotTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed job disabled, skipping", "feed", t.Name)
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	data, err := t.fetcher.Fetch(timeoutCtx, t.FeedConfig.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	snapshot, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	total := len(snapshot.Items)
	items, filteredCount := t.filterer.Run(snapshot.Items, t.FeedConfig)
	if len(items) > t.FeedConfig.Settings.MaxItems {
		items = items[:t.FeedConfig.Settings.MaxItems]
	}
	snapshot.Items = items
	snapshot.UpdatedAt = time.Now().UTC()

	if err := state.WriteJSON(t.OutputPath(), snapshot); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"feed", t.Name,
		"duration", t.GetDuration(),
		"total", total,
		"filtered", filteredCount,
		"kept", len(items))

	return nil
}

// HTTPFeedFetcher fetches feeds over HTTP with the shared client.
type HTTPFeedFetcher struct {
	http *resty.Client
}

var _ FeedFetcher = (*HTTPFeedFetcher)(nil)

func NewHTTPFeedFetcher(http *resty.Client) *HTTPFeedFetcher {
	return &HTTPFeedFetcher{http: http}
}

func (f *HTTPFeedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	if res.IsError() {
		return nil, web.StatusError(res)
	}

	return res.Body(), nil
}

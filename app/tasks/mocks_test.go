package tasks

import (
	"context"
	"errors"

	"github.com/lysyi3m/site-sync/app/lastfm"
	"github.com/lysyi3m/site-sync/app/pipeline"
)

type mockPipeline struct {
	name    string
	summary *pipeline.Summary
	err     error
	runs    int
}

func (m *mockPipeline) Name() string {
	return m.name
}

func (m *mockPipeline) Run(ctx context.Context) (*pipeline.Summary, error) {
	m.runs++
	return m.summary, m.err
}

type mockTracksFetcher struct {
	snapshot *lastfm.Snapshot
	err      error
}

func (m *mockTracksFetcher) RecentTracks(ctx context.Context, user string, limit int) (*lastfm.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

type mockFeedFetcher struct {
	data  map[string][]byte
	calls int
}

func (m *mockFeedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	data, ok := m.data[url]
	if !ok {
		return nil, errors.New("HTTP 404")
	}
	return data, nil
}

type flakyTask struct {
	Task
	failures int
	attempts int
}

func newFlakyTask(failures, maxRetries int) *flakyTask {
	return &flakyTask{
		Task:     NewTask(TaskTypeFeedSnapshot, "flaky", maxRetries),
		failures: failures,
	}
}

func (t *flakyTask) Execute(ctx context.Context) error {
	t.attempts++
	if t.attempts <= t.failures {
		return errors.New("temporary failure")
	}
	return nil
}

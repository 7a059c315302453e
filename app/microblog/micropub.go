package microblog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
)

// Micropub publishes bookmarks as h-entry posts.
type Micropub struct {
	http     *resty.Client
	endpoint string
}

var _ pipeline.Publisher = (*Micropub)(nil)

func NewMicropub(http *resty.Client, endpoint, token string) *Micropub {
	http.SetAuthToken(token)
	return &Micropub{http: http, endpoint: endpoint}
}

func (m *Micropub) Publish(ctx context.Context, candidate pipeline.Candidate) pipeline.PublishResult {
	result := pipeline.PublishResult{Key: candidate.Key()}

	bookmark, ok := candidate.(pipeline.Bookmark)
	if !ok {
		result.Error = fmt.Sprintf("unsupported candidate type %T", candidate)
		return result
	}

	form := map[string]string{
		"h":           "entry",
		"bookmark-of": bookmark.URL,
	}
	if bookmark.Title != "" {
		form["name"] = bookmark.Title
	}

	res, err := m.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(m.endpoint)
	if err != nil {
		result.Error = fmt.Sprintf("failed to post bookmark: %v", err)
		return result
	}

	if res.IsError() {
		result.Error = web.StatusError(res).Error()
		return result
	}

	result.Success = true
	result.Location = res.Header().Get("Location")
	slog.Debug("Bookmark posted", "url", bookmark.URL, "location", result.Location)

	return result
}

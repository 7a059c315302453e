package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/site-sync/app/pipeline"
)

// Titles sit in <head>, so only the start of a page is read.
const DefaultMaxPageSize = 1 << 20

// TitleResolver fills in missing bookmark titles from the linked page.
type TitleResolver struct {
	http        *resty.Client
	maxPageSize int64
}

var _ pipeline.Enricher = (*TitleResolver)(nil)

func NewTitleResolver(http *resty.Client) *TitleResolver {
	return &TitleResolver{http: http, maxPageSize: DefaultMaxPageSize}
}

func (r *TitleResolver) Enrich(ctx context.Context, candidate pipeline.Candidate) pipeline.Candidate {
	bookmark, ok := candidate.(pipeline.Bookmark)
	if !ok || bookmark.Title != "" {
		return candidate
	}

	title, err := r.Resolve(ctx, bookmark.URL)
	if err != nil {
		slog.Debug("Falling back to URL as bookmark title", "url", bookmark.URL, "error", err)
		title = bookmark.URL
	}
	bookmark.Title = title

	return bookmark
}

// Resolve fetches url and returns its <title>, or og:title when the page has
// no usable title element.
func (r *TitleResolver) Resolve(ctx context.Context, url string) (string, error) {
	res, err := r.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}

	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		return "", fmt.Errorf("HTTP %d", res.StatusCode())
	}

	contentType := res.Header().Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return "", fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(body, r.maxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}

	return ExtractTitle(data)
}

func ExtractTitle(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	candidates := []string{
		doc.Find("head title").First().Text(),
		doc.Find("title").First().Text(),
		doc.Find(`meta[property="og:title"]`).AttrOr("content", ""),
		doc.Find(`meta[name="twitter:title"]`).AttrOr("content", ""),
	}

	for _, candidate := range candidates {
		if title := collapseWhitespace(candidate); title != "" {
			return title, nil
		}
	}

	return "", fmt.Errorf("no title found")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

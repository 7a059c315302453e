package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
	"github.com/stretchr/testify/require"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
		wantErr  bool
	}{
		{
			name:     "title element",
			html:     "<html><head><title>  Cool\n\tArticle  </title></head><body></body></html>",
			expected: "Cool Article",
		},
		{
			name:     "og title fallback",
			html:     `<html><head><title>   </title><meta property="og:title" content="From OG"></head></html>`,
			expected: "From OG",
		},
		{
			name:     "entities decoded",
			html:     "<html><head><title>Tips &amp; Tricks</title></head></html>",
			expected: "Tips & Tricks",
		},
		{
			name:    "no title",
			html:    "<html><body><p>nothing here</p></body></html>",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, err := ExtractTitle([]byte(tt.html))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, title)
		})
	}
}

func TestTitleResolver_Enrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><head><title>Resolved Title</title></head></html>"))
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	resolver := NewTitleResolver(web.NewClient("site-sync-test", 5*time.Second))
	ctx := context.Background()

	tests := []struct {
		name     string
		input    pipeline.Bookmark
		expected string
	}{
		{"resolves missing title", pipeline.Bookmark{URL: server.URL + "/article"}, "Resolved Title"},
		{"keeps existing title", pipeline.Bookmark{URL: server.URL + "/article", Title: "Given"}, "Given"},
		{"falls back on HTTP error", pipeline.Bookmark{URL: server.URL + "/missing"}, server.URL + "/missing"},
		{"falls back on non-HTML", pipeline.Bookmark{URL: server.URL + "/image"}, server.URL + "/image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.Enrich(ctx, tt.input)
			bookmark, ok := result.(pipeline.Bookmark)
			require.True(t, ok)
			require.Equal(t, tt.input.URL, bookmark.URL)
			require.Equal(t, tt.expected, bookmark.Title)
		})
	}
}

func TestTitleResolver_IgnoresBooks(t *testing.T) {
	resolver := NewTitleResolver(web.NewClient("site-sync-test", time.Second))
	book := pipeline.Book{Title: "Breakneck", Author: "Dan Wang"}

	require.Equal(t, pipeline.Candidate(book), resolver.Enrich(context.Background(), book))
}

func TestTitleResolver_ReadsOnlyPageStart(t *testing.T) {
	padding := strings.Repeat("<p>filler</p>", 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/early":
			w.Write([]byte("<html><head><title>Early</title></head><body>" + padding + "</body></html>"))
		case "/late":
			w.Write([]byte("<html><body>" + padding + "<title>Late</title></body></html>"))
		}
	}))
	defer server.Close()

	resolver := NewTitleResolver(web.NewClient("site-sync-test", 5*time.Second))
	resolver.maxPageSize = 512

	title, err := resolver.Resolve(context.Background(), server.URL+"/early")
	require.NoError(t, err)
	require.Equal(t, "Early", title)

	_, err = resolver.Resolve(context.Background(), server.URL+"/late")
	require.Error(t, err, "titles past the read limit are not seen")
}

package microblog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
	"github.com/stretchr/testify/require"
)

func newTestBooks(t *testing.T, bookshelfID string, handler http.HandlerFunc) *Books {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBooks(web.NewClient("site-sync-test", 5*time.Second), server.URL+"/books", "mb-token", bookshelfID)
}

func TestResolveBookshelf(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{
			name:     "numeric id",
			payload:  `{"items": [{"id": 1, "title": "Want to read"}, {"id": 42, "title": "Currently reading"}]}`,
			expected: "42",
		},
		{
			name:     "string id",
			payload:  `{"items": [{"id": "7", "title": "Books I'm CURRENTLY READING"}]}`,
			expected: "7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books := newTestBooks(t, "", func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/books/bookshelves", r.URL.Path)
				require.Equal(t, "Bearer mb-token", r.Header.Get("Authorization"))
				w.Write([]byte(tt.payload))
			})

			id, err := books.ResolveBookshelf(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.expected, id)
			require.Equal(t, tt.expected, books.BookshelfID())
		})
	}
}

func TestResolveBookshelf_Configured(t *testing.T) {
	books := newTestBooks(t, "99", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("Expected no request, got %s %s", r.Method, r.URL.Path)
	})

	id, err := books.ResolveBookshelf(context.Background())
	require.NoError(t, err)
	require.Equal(t, "99", id)
}

func TestResolveBookshelf_NotFound(t *testing.T) {
	books := newTestBooks(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"id": 1, "title": "Finished reading"}]}`))
	})

	_, err := books.ResolveBookshelf(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrBookshelfNotFound))
}

func TestResolveBookshelf_HTTPError(t *testing.T) {
	books := newTestBooks(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := books.ResolveBookshelf(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 403")
}

func TestBooks_Publish(t *testing.T) {
	books := newTestBooks(t, "42", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/books/bookshelves/42/add", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "Breakneck", r.PostForm.Get("title"))
		require.Equal(t, "Dan Wang", r.PostForm.Get("author"))
		require.Equal(t, "9781324106036", r.PostForm.Get("isbn"))
		w.WriteHeader(http.StatusOK)
	})

	result := books.Publish(context.Background(), pipeline.Book{Title: "Breakneck", Author: "Dan Wang", ISBN: "9781324106036"})

	require.True(t, result.Success, result.Error)
	require.Equal(t, "breakneck|dan wang", result.Key)
}

func TestBooks_PublishTitleOnly(t *testing.T) {
	books := newTestBooks(t, "42", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, hasAuthor := r.PostForm["author"]
		_, hasISBN := r.PostForm["isbn"]
		require.False(t, hasAuthor)
		require.False(t, hasISBN)
		w.WriteHeader(http.StatusOK)
	})

	result := books.Publish(context.Background(), pipeline.Book{Title: "Dune"})
	require.True(t, result.Success, result.Error)
}

func TestBooks_PublishFailure(t *testing.T) {
	books := newTestBooks(t, "42", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	result := books.Publish(context.Background(), pipeline.Book{Title: "Dune", Author: "Frank Herbert"})

	require.False(t, result.Success)
	require.Equal(t, "HTTP 500: boom", result.Error)
}

func TestBooks_PublishUnresolved(t *testing.T) {
	books := newTestBooks(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("Expected no request, got %s %s", r.Method, r.URL.Path)
	})

	result := books.Publish(context.Background(), pipeline.Book{Title: "Dune"})
	require.False(t, result.Success)
	require.Equal(t, "bookshelf is not resolved", result.Error)
}

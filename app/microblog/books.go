package microblog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
)

const currentlyReading = "currently reading"

var ErrBookshelfNotFound = errors.New("bookshelf not found")

// Books adds books to a Micro.blog bookshelf.
type Books struct {
	http        *resty.Client
	bookshelfID string
}

var _ pipeline.Publisher = (*Books)(nil)

func NewBooks(http *resty.Client, baseURL, token, bookshelfID string) *Books {
	http.SetBaseURL(strings.TrimRight(baseURL, "/"))
	http.SetAuthToken(token)
	return &Books{http: http, bookshelfID: bookshelfID}
}

func (b *Books) BookshelfID() string {
	return b.bookshelfID
}

// bookshelfID accepts both the numeric and string ids the API has returned.
type bookshelfID string

func (id *bookshelfID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = bookshelfID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid bookshelf id %s", data)
	}
	*id = bookshelfID(n.String())
	return nil
}

type bookshelvesResponse struct {
	Items []struct {
		ID    bookshelfID `json:"id"`
		Title string      `json:"title"`
	} `json:"items"`
}

// ResolveBookshelf finds the "Currently reading" shelf when no id was
// configured. It is a no-op when an id is already set.
func (b *Books) ResolveBookshelf(ctx context.Context) (string, error) {
	if b.bookshelfID != "" {
		return b.bookshelfID, nil
	}

	res, err := b.http.R().
		SetContext(ctx).
		Get("/bookshelves")
	if err != nil {
		return "", fmt.Errorf("failed to list bookshelves: %w", err)
	}

	if res.IsError() {
		return "", fmt.Errorf("failed to list bookshelves: %w", web.StatusError(res))
	}

	var body bookshelvesResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to decode bookshelves: %w", err)
	}

	for _, item := range body.Items {
		if strings.Contains(strings.ToLower(item.Title), currentlyReading) && item.ID != "" {
			b.bookshelfID = string(item.ID)
			slog.Debug("Bookshelf resolved", "id", b.bookshelfID, "title", item.Title)
			return b.bookshelfID, nil
		}
	}

	return "", fmt.Errorf("%w: no shelf titled %q among %d", ErrBookshelfNotFound, currentlyReading, len(body.Items))
}

func (b *Books) Publish(ctx context.Context, candidate pipeline.Candidate) pipeline.PublishResult {
	result := pipeline.PublishResult{Key: candidate.Key()}

	book, ok := candidate.(pipeline.Book)
	if !ok {
		result.Error = fmt.Sprintf("unsupported candidate type %T", candidate)
		return result
	}

	if b.bookshelfID == "" {
		result.Error = "bookshelf is not resolved"
		return result
	}

	form := map[string]string{"title": book.Title}
	if book.Author != "" {
		form["author"] = book.Author
	}
	if book.ISBN != "" {
		form["isbn"] = book.ISBN
	}

	res, err := b.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetPathParam("id", b.bookshelfID).
		Post("/bookshelves/{id}/add")
	if err != nil {
		result.Error = fmt.Sprintf("failed to add book: %v", err)
		return result
	}

	if res.IsError() {
		result.Error = web.StatusError(res).Error()
		return result
	}

	result.Success = true
	result.Location = res.Header().Get("Location")
	slog.Debug("Book added", "title", book.Title, "author", book.Author, "bookshelf", b.bookshelfID, "status", res.StatusCode())

	return result
}

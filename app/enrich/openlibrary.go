package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
)

// OpenLibrary looks up an ISBN for books through the Open Library search API.
type OpenLibrary struct {
	http *resty.Client
}

var _ pipeline.Enricher = (*OpenLibrary)(nil)

func NewOpenLibrary(http *resty.Client, baseURL string) *OpenLibrary {
	http.SetBaseURL(baseURL)
	return &OpenLibrary{http: http}
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	ISBN       []string `json:"isbn"`
}

func (ol *OpenLibrary) Enrich(ctx context.Context, candidate pipeline.Candidate) pipeline.Candidate {
	book, ok := candidate.(pipeline.Book)
	if !ok || book.ISBN != "" {
		return candidate
	}

	isbn, err := ol.LookupISBN(ctx, book.Title, book.Author)
	if err != nil {
		slog.Debug("ISBN lookup failed", "title", book.Title, "author", book.Author, "error", err)
		return book
	}
	if isbn == "" {
		slog.Debug("No ISBN match", "title", book.Title, "author", book.Author)
	}
	book.ISBN = isbn

	return book
}

// LookupISBN returns the first ISBN of the first search result. An empty
// string with a nil error means no match.
func (ol *OpenLibrary) LookupISBN(ctx context.Context, title, author string) (string, error) {
	params := map[string]string{
		"title":  title,
		"limit":  "1",
		"fields": "title,author_name,isbn",
	}
	if author != "" {
		params["author"] = author
	}

	res, err := ol.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/search.json")
	if err != nil {
		return "", fmt.Errorf("failed to query Open Library: %w", err)
	}

	if res.IsError() {
		return "", web.StatusError(res)
	}

	var body searchResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(body.Docs) == 0 || len(body.Docs[0].ISBN) == 0 {
		return "", nil
	}

	return body.Docs[0].ISBN[0], nil
}

package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const maxSummaryLength = 280

// Goodreads RSS extensions.
const (
	goodreadsAuthor     = "author_name"
	goodreadsLargeImage = "book_large_image_url"
	goodreadsImage      = "book_image_url"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS, Atom or JSON Feed document. UpdatedAt is left for the
// caller to stamp.
func (p *Parser) Run(data []byte) (*Snapshot, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	snapshot := &Snapshot{
		Title: strings.TrimSpace(parsed.Title),
		Link:  parsed.Link,
		Items: make([]SnapshotItem, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		snapshot.Items = append(snapshot.Items, p.normalizeItem(item))
	}

	return snapshot, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) SnapshotItem {
	normalized := SnapshotItem{
		ID:         cmp.Or(item.GUID, item.Link),
		Title:      strings.TrimSpace(item.Title),
		Link:       item.Link,
		Author:     p.extractAuthor(item),
		Image:      p.extractImage(item),
		Summary:    summarize(cmp.Or(item.Description, item.Content)),
		Categories: item.Categories,
	}

	if item.PublishedParsed != nil {
		published := item.PublishedParsed.UTC()
		normalized.Published = &published
	} else if item.UpdatedParsed != nil {
		updated := item.UpdatedParsed.UTC()
		normalized.Published = &updated
	}

	return normalized
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	if author := strings.TrimSpace(item.Custom[goodreadsAuthor]); author != "" {
		return author
	}

	for _, author := range item.Authors {
		if author == nil {
			continue
		}
		if name := strings.TrimSpace(cmp.Or(author.Name, author.Email)); name != "" {
			return name
		}
	}

	if item.Author != nil {
		return strings.TrimSpace(cmp.Or(item.Author.Name, item.Author.Email))
	}

	return ""
}

func (p *Parser) extractImage(item *gofeed.Item) string {
	if image := cmp.Or(
		strings.TrimSpace(item.Custom[goodreadsLargeImage]),
		strings.TrimSpace(item.Custom[goodreadsImage]),
	); image != "" {
		return image
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}

	return ""
}

// summarize reduces HTML or plain text to a single line of at most
// maxSummaryLength runes.
func summarize(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	text := content
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= maxSummaryLength {
		return text
	}

	return strings.TrimSpace(string(runes[:maxSummaryLength])) + "…"
}

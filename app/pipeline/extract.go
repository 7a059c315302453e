package pipeline

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxTitleOnlyLength = 200

var (
	linkPattern     = regexp.MustCompile(`<(https?://[^|>\s]+)(?:\|([^>]*))?>`)
	anyURLPattern   = regexp.MustCompile(`(?i)https?://`)
	byAuthorPattern = regexp.MustCompile(`(?i)^(.+)\s+by\s+(.+)$`)
)

// Subtypes that carry user-authored content. Every other subtype is a system
// notification (joins, edits, topic changes, ...).
var contentSubtypes = map[string]bool{
	"":                 true,
	"thread_broadcast": true,
	"file_share":       true,
}

// Checked in order, so longer phrases must precede their suffixes.
var bookPrefixes = []string{
	"📚", "📖", "📕", "📗", "📘", "📙",
	":books:", ":book:", ":closed_book:", ":green_book:", ":blue_book:", ":orange_book:",
	"currently reading:", "now reading:", "started reading:", "just started:", "reading:",
}

// ExtractBookmarks returns one Bookmark per distinct link found in messages,
// in message order. Links to selfDomain (and its subdomains) are ignored.
func ExtractBookmarks(messages []RawMessage, selfDomain string) []Candidate {
	seen := make(map[string]bool)
	candidates := make([]Candidate, 0)

	for _, msg := range messages {
		if skipMessage(msg) {
			continue
		}

		for _, bookmark := range ParseLinks(msg.Text) {
			if isSelfLink(bookmark.URL, selfDomain) {
				continue
			}
			if seen[bookmark.Key()] {
				continue
			}
			seen[bookmark.Key()] = true
			candidates = append(candidates, bookmark)
		}
	}

	return candidates
}

// ExtractBooks returns one Book per distinct "title by author" mention.
// Messages that contain a URL are left to the bookmark pipeline.
func ExtractBooks(messages []RawMessage) []Candidate {
	seen := make(map[string]bool)
	candidates := make([]Candidate, 0)

	for _, msg := range messages {
		if skipMessage(msg) {
			continue
		}
		if anyURLPattern.MatchString(msg.Text) {
			continue
		}

		book, ok := ParseBook(msg.Text)
		if !ok {
			continue
		}
		if seen[book.Key()] {
			continue
		}
		seen[book.Key()] = true
		candidates = append(candidates, book)
	}

	return candidates
}

func skipMessage(msg RawMessage) bool {
	if msg.HasThread || msg.IsBot {
		return true
	}
	return !contentSubtypes[msg.Subtype]
}

// ParseLinks finds Slack formatted links (<url> or <url|label>) in text.
func ParseLinks(text string) []Bookmark {
	matches := linkPattern.FindAllStringSubmatch(text, -1)
	bookmarks := make([]Bookmark, 0, len(matches))

	for _, match := range matches {
		link := html.UnescapeString(match[1])
		label := strings.TrimSpace(html.UnescapeString(match[2]))

		bookmark := Bookmark{URL: link}
		if label != "" && label != link {
			bookmark.Title = label
		}
		bookmarks = append(bookmarks, bookmark)
	}

	return bookmarks
}

func isSelfLink(link, selfDomain string) bool {
	if selfDomain == "" {
		return false
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	domain := strings.ToLower(selfDomain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ParseBook reads a "<title> by <author>" mention. Text without a "by"
// separator is accepted as a bare title when it has a plausible length.
func ParseBook(text string) (Book, bool) {
	text = html.UnescapeString(text)
	if line, _, found := strings.Cut(strings.TrimSpace(text), "\n"); found {
		text = line
	}
	text = stripBookPrefixes(strings.TrimSpace(text))

	if match := byAuthorPattern.FindStringSubmatch(text); match != nil {
		title := cleanBookField(match[1])
		author := cleanBookField(match[2])
		if title != "" && author != "" {
			return Book{Title: title, Author: author}, true
		}
	}

	title := cleanBookField(text)
	length := utf8.RuneCountInString(title)
	if length == 0 || length > maxTitleOnlyLength {
		return Book{}, false
	}

	return Book{Title: title}, true
}

func stripBookPrefixes(text string) string {
	for {
		stripped := false
		for _, prefix := range bookPrefixes {
			if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
				text = strings.TrimLeft(text[len(prefix):], " \t\u00a0\ufe0f:-–—")
				stripped = true
			}
		}
		if !stripped {
			return text
		}
	}
}

func cleanBookField(s string) string {
	return strings.Trim(strings.TrimSpace(s), " *_\"'“”‘’")
}

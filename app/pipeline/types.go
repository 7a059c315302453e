package pipeline

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// RawMessage is a chat message as returned by the source, before any filtering.
type RawMessage struct {
	Text      string
	Timestamp string
	IsBot     bool
	HasThread bool // thread reply, not a thread parent
	Subtype   string
}

// Candidate is a parsed record waiting to be published. Key identifies it in
// the sync state.
type Candidate interface {
	Key() string
}

type Bookmark struct {
	URL   string
	Title string // empty until resolved by an enricher
}

func (b Bookmark) Key() string {
	return b.URL
}

type Book struct {
	Title  string
	Author string
	ISBN   string
}

func (b Book) Key() string {
	return BookKey(b.Title, b.Author)
}

// BookKey is the lowercase "title|author" identity of a book.
func BookKey(title, author string) string {
	title = strings.ToLower(norm.NFC.String(strings.TrimSpace(title)))
	author = strings.ToLower(norm.NFC.String(strings.TrimSpace(author)))
	return title + "|" + author
}

type PublishResult struct {
	Key      string
	Success  bool
	Error    string
	Location string
}

// RunState is a step of a pipeline run.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateLoading    RunState = "loading"
	StateFetching   RunState = "fetching"
	StateExtracting RunState = "extracting"
	StateDiffing    RunState = "diffing"
	StatePublishing RunState = "publishing"
	StatePersisting RunState = "persisting"
	StateDone       RunState = "done"
	StateAborted    RunState = "aborted"
)

// Summary reports the outcome of one run.
type Summary struct {
	Pipeline  string
	State     RunState
	Extracted int
	New       int
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
	Results   []PublishResult
}

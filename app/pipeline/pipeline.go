package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/site-sync/app/state"
	"golang.org/x/time/rate"
)

type Source interface {
	FetchMessages(ctx context.Context, channelID string, limit int) ([]RawMessage, error)
}

// Enricher augments a candidate before publishing. It must not fail: on any
// problem it returns a usable (possibly degraded) candidate.
type Enricher interface {
	Enrich(ctx context.Context, candidate Candidate) Candidate
}

// Publisher pushes a candidate to its destination. Failures are reported in
// the result, never as a panic or error return.
type Publisher interface {
	Publish(ctx context.Context, candidate Candidate) PublishResult
}

type StateStore interface {
	Load() *state.State
	Save(st *state.State) error
}

type ExtractFunc func(messages []RawMessage) []Candidate

type Components struct {
	Channel      string
	Limit        int
	Source       Source
	Extract      ExtractFunc
	Enricher     Enricher // optional
	Publisher    Publisher
	Store        StateStore
	PublishDelay time.Duration
}

// Pipeline runs load → fetch → extract → diff → publish → persist once per
// Run call. It is not safe for concurrent use, and two processes sharing a
// state file will race.
type Pipeline struct {
	name      string
	channel   string
	limit     int
	source    Source
	extract   ExtractFunc
	enricher  Enricher
	publisher Publisher
	store     StateStore
	limiter   *rate.Limiter
	now       func() time.Time
}

func NewPipeline(name string, c Components) *Pipeline {
	limit := rate.Inf
	if c.PublishDelay > 0 {
		limit = rate.Every(c.PublishDelay)
	}

	return &Pipeline{
		name:      name,
		channel:   c.Channel,
		limit:     c.Limit,
		source:    c.Source,
		extract:   c.Extract,
		enricher:  c.Enricher,
		publisher: c.Publisher,
		store:     c.Store,
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
	}
}

func (p *Pipeline) Name() string {
	return p.name
}

// Run executes one sync run. The only error paths are a failed fetch, which
// leaves the state file untouched, and a failed state save.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	startedAt := p.now()
	summary := &Summary{Pipeline: p.name, State: StateIdle}
	defer func() {
		summary.Duration = p.now().Sub(startedAt)
	}()

	p.transition(summary, StateLoading)
	st := p.store.Load()
	before := st.Len()

	p.transition(summary, StateFetching)
	messages, err := p.source.FetchMessages(ctx, p.channel, p.limit)
	if err != nil {
		p.transition(summary, StateAborted)
		return summary, fmt.Errorf("failed to fetch messages: %w", err)
	}

	p.transition(summary, StateExtracting)
	candidates := p.extract(messages)
	summary.Extracted = len(candidates)

	p.transition(summary, StateDiffing)
	fresh := Diff(candidates, st)
	summary.New = len(fresh)

	slog.Debug("Candidates extracted",
		"pipeline", p.name,
		"messages", len(messages),
		"extracted", summary.Extracted,
		"new", summary.New,
		"known", before)

	p.transition(summary, StatePublishing)
	for i, candidate := range fresh {
		if err := p.limiter.Wait(ctx); err != nil {
			summary.Skipped = len(fresh) - i
			slog.Warn("Publishing interrupted", "pipeline", p.name, "skipped", summary.Skipped, "error", err)
			break
		}

		result := p.publishItem(ctx, candidate)
		summary.Results = append(summary.Results, result)

		if result.Success {
			st.Record(candidate.Key())
			summary.Succeeded++
			slog.Debug("Item published", "pipeline", p.name, "key", result.Key, "location", result.Location)
		} else {
			summary.Failed++
			slog.Warn("Failed to publish item", "pipeline", p.name, "key", result.Key, "error", result.Error)
		}
	}

	p.transition(summary, StatePersisting)
	syncedAt := p.now().UTC()
	st.LastSync = &syncedAt
	if err := p.store.Save(st); err != nil {
		return summary, err
	}

	p.transition(summary, StateDone)
	return summary, nil
}

func (p *Pipeline) publishItem(ctx context.Context, candidate Candidate) PublishResult {
	enriched := candidate
	if p.enricher != nil {
		enriched = p.enricher.Enrich(ctx, candidate)
	}

	result := p.publisher.Publish(ctx, enriched)
	result.Key = candidate.Key()
	return result
}

func (p *Pipeline) transition(summary *Summary, next RunState) {
	slog.Debug("Pipeline state changed", "pipeline", p.name, "from", summary.State, "to", next)
	summary.State = next
}

// Diff keeps the candidates whose key is not in st, in their original order.
func Diff(candidates []Candidate, st *state.State) []Candidate {
	fresh := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if !st.Contains(candidate.Key()) {
			fresh = append(fresh, candidate)
		}
	}
	return fresh
}

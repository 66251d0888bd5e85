// Package query provides the concrete track query and result types the
// pipeline resolves. A query describes a piece of music either by structured
// artist/track/album fields or as a free-form full-text search; resolvers
// attach scored results to it.
package query

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/resolvd/resolvd/pkg/pipeline"
)

// DefaultSolvedScore is the minimum result score at which a structured query
// counts as satisfied and stops escalating to further resolvers.
const DefaultSolvedScore = 0.75

// Result is a single playable match reported by a resolver.
type Result struct {
	ResultID string
	Artist   string
	Track    string
	Album    string
	Source   string
	URL      string
	Bitrate  int
	Duration time.Duration
	Score    float64
}

var _ pipeline.Result = (*Result)(nil)

// NewResult allocates a result with a fresh id. Resolvers fill in the rest.
func NewResult() *Result {
	return &Result{ResultID: ulid.Make().String()}
}

func (r *Result) ID() string {
	return r.ResultID
}

// Query is a unit of work seeking playable matches for a track. It
// implements pipeline.Request and is safe for concurrent use.
type Query struct {
	id          string
	artist      string
	track       string
	album       string
	fullText    string
	solvedScore float64

	mu         sync.Mutex
	results    []pipeline.Result
	resolvedBy []pipeline.Resolver
	current    pipeline.Resolver

	finishOnce sync.Once
	finished   chan struct{}
}

var _ pipeline.Request = (*Query)(nil)

// New builds a structured query for the given track.
func New(artist, track, album string) *Query {
	return &Query{
		id:          uuid.NewString(),
		artist:      artist,
		track:       track,
		album:       album,
		solvedScore: DefaultSolvedScore,
		finished:    make(chan struct{}),
	}
}

// NewFullText builds a free-form search query. Full-text queries are
// exhaustive: every resolver gets a chance to contribute matches even after
// a good one arrives.
func NewFullText(text string) *Query {
	q := New("", "", "")
	q.fullText = text
	return q
}

func (q *Query) ID() string       { return q.id }
func (q *Query) Artist() string   { return q.artist }
func (q *Query) Track() string    { return q.track }
func (q *Query) Album() string    { return q.album }
func (q *Query) FullText() string { return q.fullText }

func (q *Query) AddResults(results []pipeline.Result) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.results = append(q.results, results...)
}

func (q *Query) Results() []pipeline.Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]pipeline.Result, len(q.results))
	copy(out, q.results)
	return out
}

// IsSatisfied reports whether any attached result scores at or above the
// solved threshold.
func (q *Query) IsSatisfied() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, res := range q.results {
		if r, ok := res.(*Result); ok && r.Score >= q.solvedScore {
			return true
		}
	}
	return false
}

func (q *Query) IsExhaustiveSearch() bool {
	return q.fullText != ""
}

func (q *Query) ResolvedBy() []pipeline.Resolver {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]pipeline.Resolver, len(q.resolvedBy))
	copy(out, q.resolvedBy)
	return out
}

// SetCurrentResolver records r as the resolver working the query. A non-nil
// resolver joins the attempted set exactly once; the set never shrinks.
func (q *Query) SetCurrentResolver(r pipeline.Resolver) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = r
	if r == nil {
		return
	}
	for _, attempted := range q.resolvedBy {
		if attempted == r {
			return
		}
	}
	q.resolvedBy = append(q.resolvedBy, r)
}

func (q *Query) CurrentResolver() pipeline.Resolver {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

func (q *Query) OnResolvingFinished() {
	q.finishOnce.Do(func() { close(q.finished) })
}

// Finished is closed once the pipeline finalizes the query. A query
// resubmitted after finalization will not signal again.
func (q *Query) Finished() <-chan struct{} {
	return q.finished
}

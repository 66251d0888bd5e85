//go:generate mockgen -source interface.go -destination ./mock_pipeline.go -package pipeline

package pipeline

import (
	"context"
	"time"
)

// Resolver is an asynchronous backend capability that can attempt to produce
// results for a request. Implementations are registered with a Pipeline and
// are immutable for the lifetime of the registration.
type Resolver interface {
	Name() string

	// Weight orders resolver selection. Higher weights are tried first;
	// registration order breaks exact ties.
	Weight() int

	// Timeout bounds a single attempt. Zero means the attempt never times out.
	Timeout() time.Duration

	// Resolve starts an attempt for req. Implementations deliver zero or more
	// results at some later time through ResultSink.ReportResults, keyed by
	// req.ID(). Resolve must not block indefinitely once ctx is done.
	Resolve(ctx context.Context, req Request)
}

// Request is a unit of work seeking zero or more results. The pipeline
// mutates it through this interface; implementations must be safe for
// concurrent use, since resolvers and the dispatcher touch it from
// different goroutines.
type Request interface {
	ID() string
	AddResults([]Result)
	Results() []Result

	// IsSatisfied reports whether the request holds enough good results to
	// stop early.
	IsSatisfied() bool

	// IsExhaustiveSearch reports whether the request must try all resolvers
	// regardless of early satisfaction.
	IsExhaustiveSearch() bool

	// ResolvedBy returns the resolvers already attempted. The set only grows.
	ResolvedBy() []Resolver

	// SetCurrentResolver records r as the resolver currently working the
	// request. A non-nil r joins the attempted set.
	SetCurrentResolver(r Resolver)

	// OnResolvingFinished is invoked once the pipeline finalizes the request.
	OnResolvingFinished()
}

// Result is a single answer produced by a resolver, owned by the request
// that produced it.
type Result interface {
	ID() string
}

// ResultSink receives asynchronous results from resolvers. The Pipeline is
// the canonical implementation; resolvers are handed a ResultSink instead of
// the full pipeline so they cannot reach its other entry points.
type ResultSink interface {
	ReportResults(requestID string, results []Result)
}

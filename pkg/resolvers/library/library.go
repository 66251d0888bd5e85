// Package library implements the local-library resolver: it answers queries
// out of the SQLite track index and is normally the highest weighted (and
// therefore first tried) resolver.
package library

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/resolvd/resolvd/pkg/logger"
	"github.com/resolvd/resolvd/pkg/pipeline"
	"github.com/resolvd/resolvd/pkg/query"
	"github.com/resolvd/resolvd/pkg/storage"
)

const (
	resolverName  = "local-library"
	defaultWeight = 100
)

type Resolver struct {
	store  storage.LibraryStore
	sink   pipeline.ResultSink
	logger logger.Logger
	weight int
}

var _ pipeline.Resolver = (*Resolver)(nil)

func New(store storage.LibraryStore, sink pipeline.ResultSink, l logger.Logger) *Resolver {
	return &Resolver{
		store:  store,
		sink:   sink,
		logger: l,
		weight: defaultWeight,
	}
}

func (r *Resolver) Name() string {
	return resolverName
}

func (r *Resolver) Weight() int {
	return r.weight
}

// Timeout is zero: the local index answers quickly and never escalates on
// time.
func (r *Resolver) Timeout() time.Duration {
	return 0
}

func (r *Resolver) Resolve(ctx context.Context, req pipeline.Request) {
	q, ok := req.(*query.Query)
	if !ok {
		r.sink.ReportResults(req.ID(), nil)
		return
	}

	var (
		matches []*query.Result
		err     error
	)
	if q.IsExhaustiveSearch() {
		matches, err = r.store.FullTextSearch(ctx, q.FullText())
	} else {
		matches, err = r.store.Search(ctx, q.Artist(), q.Track())
	}
	if err != nil {
		r.logger.Warn("library search failed",
			zap.String("request_id", req.ID()),
			zap.Error(err),
		)
		r.sink.ReportResults(req.ID(), nil)
		return
	}

	results := make([]pipeline.Result, 0, len(matches))
	for _, m := range matches {
		m.Source = resolverName
		results = append(results, m)
	}

	r.sink.ReportResults(req.ID(), results)
}

// Package service is the composition root: it wires the library datastore,
// the resolution pipeline and the configured resolvers into one runnable
// unit.
package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/resolvd/resolvd/pkg/logger"
	"github.com/resolvd/resolvd/pkg/pipeline"
	"github.com/resolvd/resolvd/pkg/resolvers/httpapi"
	"github.com/resolvd/resolvd/pkg/resolvers/library"
	"github.com/resolvd/resolvd/pkg/storage"
)

type Config struct {
	// MaxConcurrentQueries caps the pipeline's concurrency slots. Zero keeps
	// the pipeline default (host parallelism clamped to [4, 16]).
	MaxConcurrentQueries int

	// ReaperQuietPeriod overrides how long temporary queries linger after
	// the last temporary submission. Zero keeps the default of 5 minutes.
	ReaperQuietPeriod time.Duration

	// HTTPResolvers lists remote search APIs to register alongside the
	// local library resolver.
	HTTPResolvers []httpapi.Config
}

func DefaultConfig() Config {
	return Config{}
}

type Service struct {
	logger   logger.Logger
	store    storage.LibraryStore
	pipeline *pipeline.Pipeline
}

// New builds the pipeline and registers the local-library resolver plus any
// configured remote resolvers. The pipeline stays gated until Run observes
// index readiness.
func New(store storage.LibraryStore, cfg Config, l logger.Logger) (*Service, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(l),
		pipeline.WithNotifier(pipeline.NewLoggingNotifier(l)),
	}
	if cfg.MaxConcurrentQueries > 0 {
		opts = append(opts, pipeline.WithMaxConcurrent(cfg.MaxConcurrentQueries))
	}
	if cfg.ReaperQuietPeriod > 0 {
		opts = append(opts, pipeline.WithReaperQuietPeriod(cfg.ReaperQuietPeriod))
	}

	p := pipeline.New(opts...)

	p.AddResolver(library.New(store, p, l))

	for _, rc := range cfg.HTTPResolvers {
		r, err := httpapi.New(rc, p, l)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.AddResolver(r)
	}

	return &Service{
		logger:   l,
		store:    store,
		pipeline: p,
	}, nil
}

// Pipeline exposes the pipeline for submitting queries.
func (s *Service) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// Run loads the library index, starts the pipeline once the index signals
// readiness, and blocks until ctx is cancelled. Dispatching never begins
// before readiness.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.store.LoadIndex(gctx)
	})
	g.Go(func() error {
		select {
		case <-s.store.Ready():
			s.pipeline.Start()
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}

	<-ctx.Done()
	s.pipeline.Stop()
	return nil
}

// Close tears down the pipeline and the datastore.
func (s *Service) Close() {
	s.pipeline.Close()
	s.store.Close()
}

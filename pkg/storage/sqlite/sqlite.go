// Package sqlite provides a SQLite backed implementation of
// [storage.LibraryStore].
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/resolvd/resolvd/internal/build"
	"github.com/resolvd/resolvd/pkg/logger"
	"github.com/resolvd/resolvd/pkg/query"
	"github.com/resolvd/resolvd/pkg/storage"
)

var tracer = otel.Tracer("resolvd/pkg/storage/sqlite")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "sqlite."+name)
}

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artist TEXT NOT NULL,
	track TEXT NOT NULL,
	album TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL,
	bitrate INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tracks_artist_track
	ON tracks (artist COLLATE NOCASE, track COLLATE NOCASE);
`

// Config holds the tunables for the SQLite datastore.
type Config struct {
	Logger        logger.Logger
	ExportMetrics bool
}

// Datastore is the SQLite library index.
type Datastore struct {
	stbl             sq.StatementBuilderType
	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector

	readyOnce sync.Once
	ready     chan struct{}
}

var _ storage.LibraryStore = (*Datastore)(nil)

// PrepareDSN normalizes a raw SQLite DSN, defaulting the journal mode and
// busy timeout pragmas when the caller did not specify them.
func PrepareDSN(uri string) (string, error) {
	q := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		q, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("error parsing dsn: %w", err)
		}
		uri = uri[:i]
	}

	foundJournalMode := false
	foundBusyTimeout := false
	for _, val := range q["_pragma"] {
		if strings.HasPrefix(val, "journal_mode") {
			foundJournalMode = true
		} else if strings.HasPrefix(val, "busy_timeout") {
			foundBusyTimeout = true
		}
	}

	if !foundJournalMode {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	if !foundBusyTimeout {
		q.Add("_pragma", "busy_timeout(100)")
	}

	return uri + "?" + q.Encode(), nil
}

// New opens (or creates) the library database at uri.
func New(uri string, cfg Config) (*Datastore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	dsn, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 1 * time.Minute
	attempt := 1
	err = backoff.Retry(func() error {
		if pingErr := db.PingContext(context.Background()); pingErr != nil {
			cfg.Logger.Info("waiting for sqlite", zap.Int("attempt", attempt))
			attempt++
			return pingErr
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize library schema: %w", err)
	}

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, build.ProjectName)
		if err := prometheus.Register(collector); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	return &Datastore{
		stbl:             sq.StatementBuilder.RunWith(db),
		db:               db,
		logger:           cfg.Logger,
		dbStatsCollector: collector,
		ready:            make(chan struct{}),
	}, nil
}

// LoadIndex verifies the library is queryable and signals readiness.
func (s *Datastore) LoadIndex(ctx context.Context) error {
	ctx, span := startTrace(ctx, "LoadIndex")
	defer span.End()

	var count int
	err := s.stbl.Select("COUNT(*)").From("tracks").QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return fmt.Errorf("load library index: %w", err)
	}

	s.logger.Info("library index loaded", zap.Int("tracks", count))
	s.readyOnce.Do(func() { close(s.ready) })
	return nil
}

// Ready see [storage.LibraryStore].Ready.
func (s *Datastore) Ready() <-chan struct{} {
	return s.ready
}

func (s *Datastore) loaded() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Search see [storage.LibraryStore].Search. Exact (case-insensitive)
// artist/track matches score 1.0.
func (s *Datastore) Search(ctx context.Context, artist, track string) ([]*query.Result, error) {
	ctx, span := startTrace(ctx, "Search")
	defer span.End()

	if !s.loaded() {
		return nil, storage.ErrIndexNotReady
	}

	rows, err := s.stbl.
		Select("artist", "track", "album", "url", "bitrate", "duration_ms").
		From("tracks").
		Where(sq.And{
			sq.Expr("artist = ? COLLATE NOCASE", artist),
			sq.Expr("track = ? COLLATE NOCASE", track),
		}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("search library: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, 1.0)
}

// FullTextSearch see [storage.LibraryStore].FullTextSearch. Substring
// matches across artist, track and album score 0.9.
func (s *Datastore) FullTextSearch(ctx context.Context, text string) ([]*query.Result, error) {
	ctx, span := startTrace(ctx, "FullTextSearch")
	defer span.End()

	if !s.loaded() {
		return nil, storage.ErrIndexNotReady
	}

	pattern := "%" + strings.ToLower(text) + "%"
	rows, err := s.stbl.
		Select("artist", "track", "album", "url", "bitrate", "duration_ms").
		From("tracks").
		Where(sq.Or{
			sq.Like{"LOWER(artist)": pattern},
			sq.Like{"LOWER(track)": pattern},
			sq.Like{"LOWER(album)": pattern},
		}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("search library: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, 0.9)
}

// AddTracks see [storage.LibraryStore].AddTracks.
func (s *Datastore) AddTracks(ctx context.Context, tracks []storage.Track) error {
	ctx, span := startTrace(ctx, "AddTracks")
	defer span.End()

	if len(tracks) == 0 {
		return nil
	}

	insert := s.stbl.
		Insert("tracks").
		Columns("artist", "track", "album", "url", "bitrate", "duration_ms")
	for _, t := range tracks {
		insert = insert.Values(t.Artist, t.Track, t.Album, t.URL, t.Bitrate, t.Duration.Milliseconds())
	}

	if _, err := insert.ExecContext(ctx); err != nil {
		return fmt.Errorf("add tracks: %w", err)
	}
	return nil
}

// Close closes the datastore and cleans up any residual resources.
func (s *Datastore) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.db.Close()
}

func scanResults(rows *sql.Rows, score float64) ([]*query.Result, error) {
	var results []*query.Result
	for rows.Next() {
		var (
			res        = query.NewResult()
			durationMs int64
		)
		if err := rows.Scan(&res.Artist, &res.Track, &res.Album, &res.URL, &res.Bitrate, &durationMs); err != nil {
			return nil, fmt.Errorf("scan track row: %w", err)
		}
		res.Duration = time.Duration(durationMs) * time.Millisecond
		res.Score = score
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan track rows: %w", err)
	}
	return results, nil
}

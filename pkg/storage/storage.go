// Package storage defines the persistent library index the pipeline's local
// resolver searches against.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/resolvd/resolvd/pkg/query"
)

// ErrIndexNotReady is returned by searches issued before LoadIndex has
// completed.
var ErrIndexNotReady = errors.New("library index not ready")

// Track is one locally known, playable track.
type Track struct {
	Artist   string
	Track    string
	Album    string
	URL      string
	Bitrate  int
	Duration time.Duration
}

// LibraryStore is the index of locally known tracks. The pipeline does not
// dispatch until the store signals readiness.
type LibraryStore interface {
	// LoadIndex prepares the search index. Searches fail with
	// ErrIndexNotReady until it completes.
	LoadIndex(ctx context.Context) error

	// Ready is closed once LoadIndex has completed successfully.
	Ready() <-chan struct{}

	// Search returns scored matches for a structured artist/track query.
	Search(ctx context.Context, artist, track string) ([]*query.Result, error)

	// FullTextSearch returns scored matches for a free-form search string.
	FullTextSearch(ctx context.Context, text string) ([]*query.Result, error)

	// AddTracks inserts tracks into the library.
	AddTracks(ctx context.Context, tracks []Track) error

	Close()
}

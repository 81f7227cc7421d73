// Package resolve maps play events onto catalog entries.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/songplays/internal/schema"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Lookup finds the catalog entry of a song by title, artist name and duration.
type Lookup interface {
	LookupSong(ctx context.Context, title, artist string, duration float64) (core.SongRef, bool, error)
}

// StoreLookup queries the loaded songs and artists tables.
type StoreLookup struct {
	sel   adapter.Selector
	query string
}

// NewStoreLookup creates a lookup against sel using the dialect's placeholders.
func NewStoreLookup(sel adapter.Selector, dialect *core.DialectConfig) *StoreLookup {
	return &StoreLookup{sel: sel, query: schema.SongLookupSQL(dialect)}
}

// LookupSong returns the first matching (song_id, artist_id) pair.
func (l *StoreLookup) LookupSong(ctx context.Context, title, artist string, duration float64) (core.SongRef, bool, error) {
	row, err := l.sel.SelectOne(ctx, l.query, title, artist, duration)
	if errors.Is(err, adapter.ErrNoRows) {
		return core.SongRef{}, false, nil
	}
	if err != nil {
		return core.SongRef{}, false, fmt.Errorf("failed to look up %q by %q: %w", title, artist, err)
	}
	if len(row) < 2 {
		return core.SongRef{}, false, fmt.Errorf("lookup returned %d columns, expected 2", len(row))
	}
	return core.SongRef{SongID: row[0], ArtistID: row[1]}, true, nil
}

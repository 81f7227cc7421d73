package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/songplays/internal/record"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Event columns used as the lookup key.
const (
	SongColumn   = "song"
	ArtistColumn = "artist"
	LengthColumn = "length"
)

// Options tunes a Resolver.
type Options struct {
	// Workers bounds concurrent lookups. Defaults to 1.
	Workers int
	// CacheSize bounds the memo of lookup results. Zero disables the memo.
	CacheSize uint64
}

type lookupKey struct {
	title    string
	artist   string
	duration float64
}

// Resolver turns play events into catalog references, one per event.
type Resolver struct {
	lookup  Lookup
	workers int
	cache   *ttlcache.Cache[lookupKey, core.SongRef]
	logger  *slog.Logger
}

// NewResolver creates a resolver over lookup.
func NewResolver(lookup Lookup, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	r := &Resolver{lookup: lookup, workers: workers, logger: logger}
	if opts.CacheSize > 0 {
		r.cache = ttlcache.New(
			ttlcache.WithCapacity[lookupKey, core.SongRef](opts.CacheSize),
		)
	}
	return r
}

// Resolve returns one reference per row of events, aligned by index. Rows
// without a song, artist or length resolve to an empty reference without a
// lookup. The first lookup error aborts the resolve.
func (r *Resolver) Resolve(ctx context.Context, events *record.Batch) ([]core.SongRef, error) {
	refs := make([]core.SongRef, events.Len())
	var found, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, row := range events.Rows {
		key, ok := keyOf(row)
		if !ok {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			ref, err := r.resolveOne(gctx, key)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			if ref.Found() {
				found.Add(1)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("songs resolved",
		slog.Int("events", len(refs)),
		slog.Int64("found", found.Load()),
		slog.Int64("incomplete", skipped.Load()))
	return refs, nil
}

func (r *Resolver) resolveOne(ctx context.Context, key lookupKey) (core.SongRef, error) {
	if r.cache == nil {
		ref, _, err := r.lookup.LookupSong(ctx, key.title, key.artist, key.duration)
		return ref, err
	}

	if item := r.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	ref, _, err := r.lookup.LookupSong(ctx, key.title, key.artist, key.duration)
	if err != nil {
		return core.SongRef{}, err
	}
	// Misses are cached too.
	r.cache.Set(key, ref, ttlcache.DefaultTTL)
	return ref, nil
}

func keyOf(row record.Record) (lookupKey, bool) {
	title, ok := row[SongColumn].(string)
	if !ok || title == "" {
		return lookupKey{}, false
	}
	artist, ok := row[ArtistColumn].(string)
	if !ok || artist == "" {
		return lookupKey{}, false
	}

	var duration float64
	switch v := row[LengthColumn].(type) {
	case float64:
		duration = v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return lookupKey{}, false
		}
		duration = f
	default:
		return lookupKey{}, false
	}
	return lookupKey{title: title, artist: artist, duration: duration}, true
}

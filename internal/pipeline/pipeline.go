// Package pipeline runs the songplays ETL end to end: catalog dimensions
// first, then the event-derived time and user dimensions and finally the
// songplays fact table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/songplays/internal/load"
	"github.com/leapstack-labs/songplays/internal/record"
	"github.com/leapstack-labs/songplays/internal/resolve"
	"github.com/leapstack-labs/songplays/internal/scan"
	"github.com/leapstack-labs/songplays/internal/schema"
	"github.com/leapstack-labs/songplays/internal/transform"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Event fields the pipeline relies on.
const (
	PageColumn      = "page"
	PlayPage        = "NextSong"
	TimestampColumn = "ts"
	UserKeyColumn   = "userId"
)

// Source columns feeding each target table, position by position.
var (
	ArtistSource   = []string{"artist_id", "artist_name", "artist_location", "artist_latitude", "artist_longitude"}
	UserSource     = []string{"userId", "firstName", "lastName", "gender", "level"}
	SongPlaySource = []string{"ts", "userId", "level", "song_id", "artist_id", "sessionId", "location", "userAgent"}
)

// Config holds the inputs of a run.
type Config struct {
	SongData  string
	LogData   string
	Extension string
	Workers   int
	CacheSize uint64
}

// Store is the target the pipeline loads into and resolves against.
type Store interface {
	load.Store
	adapter.Selector
}

// RunRecorder persists run history. It is optional.
type RunRecorder interface {
	CreateRun(ctx context.Context, target string) (*core.Run, error)
	RecordTable(ctx context.Context, runID string, res core.TableResult) error
	CompleteRun(ctx context.Context, runID string, status core.RunStatus, errMsg string) error
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Tables   []core.TableResult
	Events   int
	Rejected int
	Resolved int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder records the run under target in rec.
func WithRecorder(rec RunRecorder, target string) Option {
	return func(p *Pipeline) {
		p.recorder = rec
		p.target = target
	}
}

// Pipeline loads one data set into one store.
type Pipeline struct {
	cfg      Config
	store    Store
	reader   *record.Reader
	loader   *load.Loader
	resolver *resolve.Resolver
	recorder RunRecorder
	target   string
	logger   *slog.Logger

	runID string
}

// New creates a pipeline over store. The caller owns the store and closes it.
func New(cfg Config, store Store, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Extension == "" {
		cfg.Extension = scan.DefaultExtension
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	p := &Pipeline{
		cfg:    cfg,
		store:  store,
		reader: record.NewReader(cfg.Workers, logger),
		loader: load.New(store, logger),
		resolver: resolve.NewResolver(
			resolve.NewStoreLookup(store, store.DialectConfig()),
			resolve.Options{Workers: cfg.Workers, CacheSize: cfg.CacheSize},
			logger,
		),
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every stage in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	p.startRun(ctx)
	res.RunID = p.runID

	err := p.run(ctx, res)
	p.finishRun(ctx, err)
	if err != nil {
		return res, err
	}

	p.logger.Info("run completed", slog.Int("tables", len(res.Tables)), slog.Int("events", res.Events))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result) error {
	// Catalog: songs and artists must be loaded before events are resolved.
	catalog, err := p.read(ctx, "song data", p.cfg.SongData)
	if err != nil {
		return err
	}

	songs := transform.Project(catalog, schema.Songs.ColumnNames(), schema.Songs.Key)
	if err := p.loadRows(ctx, res, schema.Songs, songs); err != nil {
		return err
	}

	artists := transform.Rename(transform.Project(catalog, ArtistSource, ArtistSource[0]), transform.ArtistFields)
	if err := p.loadRows(ctx, res, schema.Artists, artists); err != nil {
		return err
	}

	logs, err := p.read(ctx, "log data", p.cfg.LogData)
	if err != nil {
		return err
	}
	events := transform.Filter(logs, PageColumn, PlayPage)

	// start_time is required on every fact, so events without one are dropped
	// from all event-derived tables.
	events, rejected := transform.KeepTimestamped(events, TimestampColumn)
	for _, rerr := range rejected {
		p.logger.Warn("invalid event, skipping", slog.Int("event", rerr.Row), slog.String("error", rerr.Err.Error()))
	}
	res.Events = events.Len()
	res.Rejected = len(rejected)
	p.logger.Info("play events selected",
		slog.Int("events", events.Len()),
		slog.Int("rejected", len(rejected)),
		slog.Int("records", logs.Len()))

	times, err := transform.DecomposeTime(events, TimestampColumn)
	if err != nil {
		return fmt.Errorf("failed to decompose timestamps: %w", err)
	}
	times = transform.Project(times, schema.Time.ColumnNames(), schema.Time.Key)
	if err := p.loadRows(ctx, res, schema.Time, times); err != nil {
		return err
	}

	refs, err := p.resolver.Resolve(ctx, events)
	if err != nil {
		return fmt.Errorf("failed to resolve songs: %w", err)
	}
	for _, ref := range refs {
		if ref.Found() {
			res.Resolved++
		}
	}
	plays, err := transform.AssembleSongPlays(events, refs)
	if err != nil {
		return fmt.Errorf("failed to assemble songplays: %w", err)
	}

	users := transform.Rename(transform.Project(events, UserSource, UserKeyColumn), transform.UserFields)
	if err := p.loadRows(ctx, res, schema.Users, users); err != nil {
		return err
	}

	tr, err := p.loader.Bulk(ctx, schema.SongPlays, plays, SongPlaySource)
	if err != nil {
		return err
	}
	p.record(ctx, res, tr)
	return nil
}

func (p *Pipeline) read(ctx context.Context, what, root string) (*record.Batch, error) {
	files, err := scan.Files(ctx, root, p.cfg.Extension, p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", what, err)
	}
	batch, stats, err := p.reader.ReadFiles(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", what, err)
	}
	p.logger.Info("input read",
		slog.String("input", what),
		slog.Int("files", stats.Files),
		slog.Int("records", stats.Records),
		slog.Int("invalid", stats.Invalid))
	return batch, nil
}

func (p *Pipeline) loadRows(ctx context.Context, res *Result, table schema.Table, b *record.Batch) error {
	tr, err := p.loader.Rows(ctx, table, b)
	if err != nil {
		return err
	}
	p.record(ctx, res, tr)
	return nil
}

func (p *Pipeline) record(ctx context.Context, res *Result, tr *core.TableResult) {
	res.Tables = append(res.Tables, *tr)
	if p.recorder == nil || p.runID == "" {
		return
	}
	if err := p.recorder.RecordTable(ctx, p.runID, *tr); err != nil {
		p.logger.Warn("failed to record table result", slog.String("table", tr.Table), slog.String("error", err.Error()))
	}
}

func (p *Pipeline) startRun(ctx context.Context) {
	p.runID = ""
	if p.recorder == nil {
		return
	}
	run, err := p.recorder.CreateRun(ctx, p.target)
	if err != nil {
		p.logger.Warn("failed to record run start", slog.String("error", err.Error()))
		return
	}
	p.runID = run.ID
}

func (p *Pipeline) finishRun(ctx context.Context, runErr error) {
	if p.recorder == nil || p.runID == "" {
		return
	}
	status, msg := core.RunStatusCompleted, ""
	if runErr != nil {
		status, msg = core.RunStatusFailed, runErr.Error()
	}
	// The run context may already be cancelled; history is still written.
	if err := p.recorder.CompleteRun(context.WithoutCancel(ctx), p.runID, status, msg); err != nil {
		p.logger.Warn("failed to record run completion", slog.String("error", err.Error()))
	}
}

// Package duckdb provides a DuckDB database adapter for songplays.
package duckdb

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

var dialectConfig = &core.DialectConfig{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			Logger:      logger,
			IsDuplicate: isConstraintViolation,
		},
	}
}

// DialectConfig returns the SQL settings for DuckDB.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return dialectConfig
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = a.Close()
		return err
	}
	return nil
}

// applyParams loads extensions and session settings.
func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := strings.ReplaceAll(p.Settings[k], "'", "''")
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = '%s'", k, v)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

// BulkCopy stages the buffer in a temporary file and loads it with COPY.
// DuckDB's CSV reader does not understand COPY text escapes, so the buffer
// is decoded first and re-encoded as quoted CSV.
func (a *Adapter) BulkCopy(ctx context.Context, r io.Reader, table string, columns []string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	rows, err := adapter.ReadTSV(r, len(columns))
	if err != nil {
		return fmt.Errorf("failed to decode bulk buffer: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	tmp, err := os.CreateTemp("", "songplays-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := writeStagingCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	if err := a.Exec(ctx, buildCopySQL(table, columns, tmp.Name())); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("failed to copy into %s: %w: %w", table, adapter.ErrDuplicateKey, err)
		}
		return fmt.Errorf("failed to copy into %s: %w", table, err)
	}

	a.Logger.Debug("copied rows", slog.String("table", table), slog.Int("rows", len(rows)))
	return nil
}

func writeStagingCSV(w io.Writer, rows [][]any) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	record := make([]string, 0)
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			if v == nil {
				record = append(record, adapter.NullToken)
				continue
			}
			record = append(record, v.(string))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write staging file: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write staging file: %w", err)
	}
	return nil
}

func buildCopySQL(table string, columns []string, path string) string {
	return fmt.Sprintf(
		"COPY %s (%s) FROM '%s' (FORMAT csv, DELIMITER '\t', HEADER false, QUOTE '\"', NULLSTR '%s')",
		adapter.QuoteIdent(table),
		adapter.QuoteIdents(columns),
		strings.ReplaceAll(path, "'", "''"),
		adapter.NullToken,
	)
}

func isConstraintViolation(err error) bool {
	return adapter.ContainsAny(err,
		"Duplicate key",
		"duplicate key",
		"violates primary key constraint",
		"violates unique constraint",
		"PRIMARY KEY or UNIQUE constraint violated",
	)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

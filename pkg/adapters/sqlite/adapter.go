// Package sqlite provides a SQLite database adapter for songplays.
// It uses the pure Go modernc.org/sqlite driver, so it also serves as the
// zero-dependency target for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

var dialectConfig = &core.DialectConfig{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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

// DialectConfig returns the SQL settings for SQLite.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return dialectConfig
}

// Connect opens the database file. An empty path or ":memory:" opens an
// in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// BulkCopy replays the buffer as prepared inserts inside one transaction.
func (a *Adapter) BulkCopy(ctx context.Context, r io.Reader, table string, columns []string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	rows, err := adapter.ReadTSV(r, len(columns))
	if err != nil {
		return fmt.Errorf("failed to decode bulk buffer: %w", err)
	}

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		adapter.QuoteIdent(table), adapter.QuoteIdents(columns), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("failed to copy row %d into %s: %w: %w", i+1, table, adapter.ErrDuplicateKey, err)
			}
			return fmt.Errorf("failed to copy row %d into %s: %w", i+1, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit copy into %s: %w", table, err)
	}

	a.Logger.Debug("copied rows", slog.String("table", table), slog.Int("rows", len(rows)))
	return nil
}

func isConstraintViolation(err error) bool {
	return adapter.ContainsAny(err, "UNIQUE constraint failed", "PRIMARY KEY constraint failed")
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

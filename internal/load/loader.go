// Package load writes transformed batches into the target store.
package load

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/songplays/internal/record"
	"github.com/leapstack-labs/songplays/internal/schema"
	"github.com/leapstack-labs/songplays/internal/transform"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Store is the part of an adapter the loader writes through.
type Store interface {
	adapter.Inserter
	adapter.BulkCopier
	DialectConfig() *core.DialectConfig
}

// Loader loads batches into one store.
type Loader struct {
	store  Store
	logger *slog.Logger
}

// New creates a loader writing to store.
func New(store Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{store: store, logger: logger}
}

// Rows inserts b one row at a time. b must already use the table's column
// names. Rows conflicting on the natural key are logged and skipped; any other
// failure aborts the load.
func (l *Loader) Rows(ctx context.Context, table schema.Table, b *record.Batch) (*core.TableResult, error) {
	res := &core.TableResult{Table: table.Name, Rows: b.Len()}
	stmt := table.InsertSQL(l.store.DialectConfig())

	for i, row := range b.Rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		args, err := rowArgs(table, row)
		if err != nil {
			return res, fmt.Errorf("failed to load %s row %d: %w", table.Name, i, err)
		}

		err = l.store.Insert(ctx, stmt, args...)
		switch {
		case err == nil:
			res.Inserted++
		case errors.Is(err, adapter.ErrDuplicateKey):
			res.Skipped++
			attrs := []any{slog.String("table", table.Name), slog.Int("row", i)}
			if table.Key != "" {
				attrs = append(attrs, slog.Any("key", row[table.Key]))
			}
			attrs = append(attrs, slog.Any("values", args))
			l.logger.Warn("duplicate key, skipping", attrs...)
		default:
			return res, fmt.Errorf("failed to load %s row %d: %w", table.Name, i, err)
		}
	}

	l.logger.Info("table loaded",
		slog.String("table", table.Name),
		slog.Int("inserted", res.Inserted),
		slog.Int("skipped", res.Skipped))
	return res, nil
}

// Bulk loads b in a single BulkCopy. sourceColumns names, position by
// position, the batch column feeding each table column. The whole batch
// succeeds or fails together; a key conflict fails it.
func (l *Loader) Bulk(ctx context.Context, table schema.Table, b *record.Batch, sourceColumns []string) (*core.TableResult, error) {
	if len(sourceColumns) != len(table.Columns) {
		return nil, fmt.Errorf("%s: %d source columns for %d table columns", table.Name, len(sourceColumns), len(table.Columns))
	}

	projected := transform.Project(b, sourceColumns, "")
	res := &core.TableResult{Table: table.Name, Rows: projected.Len()}
	if projected.Len() == 0 {
		l.logger.Info("nothing to load", slog.String("table", table.Name))
		return res, nil
	}

	var buf bytes.Buffer
	if err := WriteTSV(&buf, table, projected, sourceColumns); err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", table.Name, err)
	}

	if err := l.store.BulkCopy(ctx, &buf, table.Name, table.ColumnNames()); err != nil {
		return nil, fmt.Errorf("failed to bulk load %s: %w", table.Name, err)
	}
	res.Inserted = projected.Len()

	l.logger.Info("table loaded",
		slog.String("table", table.Name),
		slog.Int("inserted", res.Inserted),
		slog.String("mode", "bulk"))
	return res, nil
}

func rowArgs(table schema.Table, row record.Record) ([]any, error) {
	args := make([]any, len(table.Columns))
	for j, c := range table.Columns {
		v, err := c.Kind.Coerce(row[c.Name])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		args[j] = v
	}
	return args, nil
}

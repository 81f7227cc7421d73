// Package adapter provides the database adapter contract used by the
// songplays load pipeline.
//
// The pipeline only ever needs a narrow set of operations from the target
// store: execute DDL, insert one row, select one row and bulk-copy a
// serialized batch. Concrete adapter implementations are in pkg/adapters/
// subdirectories and register themselves by name.
package adapter

import (
	"context"
	"errors"
	"io"

	"github.com/leapstack-labs/songplays/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

var (
	// ErrNotConnected is returned when an operation runs before Connect.
	ErrNotConnected = errors.New("database connection not established")

	// ErrDuplicateKey wraps natural-key conflicts reported by the store.
	// Callers check it with errors.Is.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNoRows is returned by SelectOne when the query matched nothing.
	ErrNoRows = errors.New("no rows")
)

// Inserter executes single-row insert statements.
type Inserter interface {
	// Insert executes stmt with args in its own transaction.
	// A unique-key violation is reported as an error wrapping ErrDuplicateKey.
	Insert(ctx context.Context, stmt string, args ...any) error
}

// Selector executes point lookups.
type Selector interface {
	// SelectOne returns the first row produced by stmt, or ErrNoRows.
	SelectOne(ctx context.Context, stmt string, args ...any) ([]any, error)
}

// BulkCopier loads a serialized batch in one transaction.
type BulkCopier interface {
	// BulkCopy reads tab-separated rows (see ReadTSV) from r and loads them
	// into columns of table. The whole batch fails or succeeds together.
	BulkCopy(ctx context.Context, r io.Reader, table string, columns []string) error
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	Inserter
	Selector
	BulkCopier

	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g. CREATE TABLE).
	Exec(ctx context.Context, sql string) error

	// DialectConfig returns the SQL settings of this adapter.
	DialectConfig() *core.DialectConfig
}

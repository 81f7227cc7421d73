// Package postgres provides a PostgreSQL database adapter for songplays.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
)

var dialectConfig = &core.DialectConfig{
	Name:          "postgres",
	DefaultSchema: "public",
	Placeholder:   core.PlaceholderDollar,
}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			Logger:      logger,
			IsDuplicate: isUniqueViolation,
		},
	}
}

// DialectConfig returns the SQL settings for PostgreSQL.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return dialectConfig
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL key=value connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	var b strings.Builder
	writeDSNPair(&b, "host", host)
	writeDSNPair(&b, "port", strconv.Itoa(port))
	writeDSNPair(&b, "dbname", cfg.Database)
	writeDSNPair(&b, "sslmode", sslmode)
	if cfg.Username != "" {
		writeDSNPair(&b, "user", cfg.Username)
	}
	if cfg.Password != "" {
		writeDSNPair(&b, "password", cfg.Password)
	}
	if cfg.Schema != "" && cfg.Schema != dialectConfig.DefaultSchema {
		writeDSNPair(&b, "search_path", cfg.Schema)
	}
	return b.String()
}

func writeDSNPair(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(quoteDSNValue(value))
}

// quoteDSNValue single-quotes values that are empty or contain whitespace,
// quotes or backslashes, escaping the latter two with a backslash.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r\v\f'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// BulkCopy streams the buffer through COPY FROM STDIN.
// COPY runs as a single statement, so a failing row rejects the whole batch.
func (a *Adapter) BulkCopy(ctx context.Context, r io.Reader, table string, columns []string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	copySQL := buildCopySQL(table, columns)

	err = conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()

		tag, err := pgxConn.PgConn().CopyFrom(ctx, r, copySQL)
		if err != nil {
			return err
		}
		a.Logger.Debug("copied rows", slog.String("table", table), slog.Int64("rows", tag.RowsAffected()))
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to copy into %s: %w: %w", table, adapter.ErrDuplicateKey, err)
		}
		return fmt.Errorf("failed to copy into %s: %w", table, err)
	}
	return nil
}

// buildCopySQL returns the COPY statement for the tab-separated buffer format.
func buildCopySQL(table string, columns []string) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT text, NULL '%s')",
		adapter.QuoteIdent(table), adapter.QuoteIdents(columns), adapter.NullToken)
}

// isUniqueViolation reports whether err carries SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

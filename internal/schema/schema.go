// Package schema describes the star schema the pipeline loads into and
// generates the SQL for it.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Column is one column of a target table.
type Column struct {
	Name string
	Kind Kind
}

// Table is a target table. Key names the natural-key column; it is empty for
// the fact table.
type Table struct {
	Name    string
	Columns []Column
	Key     string
}

// Target tables.
var (
	Songs = Table{
		Name: "songs",
		Key:  "song_id",
		Columns: []Column{
			{"song_id", Text},
			{"title", Text},
			{"artist_id", Text},
			{"year", Int},
			{"duration", Float},
		},
	}

	Artists = Table{
		Name: "artists",
		Key:  "artist_id",
		Columns: []Column{
			{"artist_id", Text},
			{"name", Text},
			{"location", Text},
			{"latitude", Float},
			{"longitude", Float},
		},
	}

	Time = Table{
		Name: "time",
		Key:  "start_time",
		Columns: []Column{
			{"start_time", Int},
			{"hour", Int},
			{"day", Int},
			{"week_of_year", Int},
			{"month", Int},
			{"year", Int},
			{"weekday", Int},
		},
	}

	Users = Table{
		Name: "users",
		Key:  "user_id",
		Columns: []Column{
			{"user_id", Text},
			{"first_name", Text},
			{"last_name", Text},
			{"gender", Text},
			{"level", Text},
		},
	}

	SongPlays = Table{
		Name: "songplays",
		Columns: []Column{
			{"start_time", Int},
			{"user_id", Text},
			{"level", Text},
			{"song_id", Text},
			{"artist_id", Text},
			{"session_id", Int},
			{"location", Text},
			{"user_agent", Text},
		},
	}
)

// All lists the tables in creation order.
var All = []Table{Songs, Artists, Time, Users, SongPlays}

// ColumnNames returns the column names in table order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL returns an idempotent CREATE TABLE statement.
func (t Table) CreateSQL() string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def := adapter.QuoteIdent(c.Name) + " " + c.Kind.SQLType()
		if c.Name == t.Key {
			def += " PRIMARY KEY"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", adapter.QuoteIdent(t.Name), strings.Join(defs, ", "))
}

// DropSQL returns a DROP TABLE IF EXISTS statement.
func (t Table) DropSQL() string {
	return "DROP TABLE IF EXISTS " + adapter.QuoteIdent(t.Name)
}

// InsertSQL returns a parameterized single-row INSERT using the dialect's
// placeholder style.
func (t Table) InsertSQL(d *core.DialectConfig) string {
	placeholders := make([]string, len(t.Columns))
	for i := range t.Columns {
		placeholders[i] = d.FormatPlaceholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		adapter.QuoteIdent(t.Name), adapter.QuoteIdents(t.ColumnNames()), strings.Join(placeholders, ", "))
}

// SongLookupSQL returns the query resolving (title, artist name, duration)
// to a (song_id, artist_id) pair.
func SongLookupSQL(d *core.DialectConfig) string {
	return fmt.Sprintf(`SELECT s."song_id", s."artist_id" FROM "songs" s JOIN "artists" a ON s."artist_id" = a."artist_id" WHERE s."title" = %s AND a."name" = %s AND s."duration" = %s`,
		d.FormatPlaceholder(1), d.FormatPlaceholder(2), d.FormatPlaceholder(3))
}

// Executor runs DDL statements.
type Executor interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureSchema creates all target tables. With drop set, existing tables are
// dropped first, in reverse creation order.
func EnsureSchema(ctx context.Context, exec Executor, drop bool) error {
	if drop {
		for i := len(All) - 1; i >= 0; i-- {
			if err := exec.Exec(ctx, All[i].DropSQL()); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", All[i].Name, err)
			}
		}
	}
	for _, t := range All {
		if err := exec.Exec(ctx, t.CreateSQL()); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
	}
	return nil
}

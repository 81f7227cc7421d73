package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg adapter.Config) *Adapter {
	t.Helper()
	a := New(nil)
	require.NoError(t, a.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "sparkify.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setupPath(t)
			a := connect(t, adapter.Config{Path: path})
			assert.True(t, a.IsConnected())
			if tt.verify != nil {
				tt.verify(t, path)
			}
		})
	}
}

func TestAdapter_ConnectWithSettings(t *testing.T) {
	a := connect(t, adapter.Config{
		Path:   ":memory:",
		Params: map[string]any{"settings": map[string]any{"threads": 2}},
	})

	row, err := a.SelectOne(context.Background(), "SELECT current_setting('threads')")
	require.NoError(t, err)
	require.Len(t, row, 1)
	assert.EqualValues(t, 2, row[0])
}

func TestAdapter_ConnectInvalidParams(t *testing.T) {
	a := New(nil)
	err := a.Connect(context.Background(), adapter.Config{
		Params: map[string]any{"unknown_key": true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duckdb params")
}

func TestAdapter_InsertDuplicate(t *testing.T) {
	a := connect(t, adapter.Config{Path: ":memory:"})
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, `CREATE TABLE "songs" ("song_id" VARCHAR PRIMARY KEY, "title" VARCHAR)`))

	stmt := `INSERT INTO "songs" ("song_id", "title") VALUES (?, ?)`
	require.NoError(t, a.Insert(ctx, stmt, "SOXXX", "Oblivion"))

	err := a.Insert(ctx, stmt, "SOXXX", "Oblivion")
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrDuplicateKey)

	row, err := a.SelectOne(ctx, `SELECT COUNT(*) FROM "songs"`)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, row)
}

func TestAdapter_BulkCopy(t *testing.T) {
	a := connect(t, adapter.Config{Path: ":memory:"})
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, `CREATE TABLE "songplays" ("start_time" BIGINT, "song_id" VARCHAR, "user_agent" VARCHAR)`))

	buf := "1541105830796\tUnknown\tMozilla\\t5.0\n" +
		"1541106106796\tSOXXX\t\"quoted\" agent\n"
	err := a.BulkCopy(ctx, strings.NewReader(buf), "songplays", []string{"start_time", "song_id", "user_agent"})
	require.NoError(t, err)

	row, err := a.SelectOne(ctx, `SELECT COUNT(*), COUNT("song_id") FROM "songplays"`)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(1)}, row)

	row, err = a.SelectOne(ctx, `SELECT "user_agent" FROM "songplays" WHERE "start_time" = 1541105830796`)
	require.NoError(t, err)
	assert.Equal(t, []any{"Mozilla\t5.0"}, row)

	row, err = a.SelectOne(ctx, `SELECT "user_agent" FROM "songplays" WHERE "song_id" = 'SOXXX'`)
	require.NoError(t, err)
	assert.Equal(t, []any{`"quoted" agent`}, row)
}

func TestAdapter_BulkCopyDuplicateFailsBatch(t *testing.T) {
	a := connect(t, adapter.Config{Path: ":memory:"})
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, `CREATE TABLE "time" ("start_time" BIGINT PRIMARY KEY, "hour" BIGINT)`))

	err := a.BulkCopy(ctx, strings.NewReader("1\t21\n1\t21\n"), "time", []string{"start_time", "hour"})
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrDuplicateKey)

	row, err := a.SelectOne(ctx, `SELECT COUNT(*) FROM "time"`)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0)}, row)
}

func TestAdapter_BulkCopyEmpty(t *testing.T) {
	a := connect(t, adapter.Config{Path: ":memory:"})
	assert.NoError(t, a.BulkCopy(context.Background(), strings.NewReader(""), "missing_table", []string{"a"}))
}

func TestRegistered(t *testing.T) {
	assert.True(t, adapter.IsRegistered("duckdb"))
}

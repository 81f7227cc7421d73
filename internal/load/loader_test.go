package load

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/leapstack-labs/songplays/internal/record"
	"github.com/leapstack-labs/songplays/internal/schema"
	"github.com/leapstack-labs/songplays/internal/testutil"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/adapters/sqlite"
	"github.com/leapstack-labs/songplays/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Adapter {
	t.Helper()
	a := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, a.Connect(context.Background(), adapter.Config{Path: ":memory:"}))
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, schema.EnsureSchema(context.Background(), a, false))
	return a
}

func count(t *testing.T, a *sqlite.Adapter, table string) int64 {
	t.Helper()
	row, err := a.SelectOne(context.Background(), fmt.Sprintf(`SELECT COUNT(*) FROM %s`, adapter.QuoteIdent(table)))
	require.NoError(t, err)
	return row[0].(int64)
}

func songs() *record.Batch {
	return record.NewBatch([]record.Record{
		{"song_id": "SOAAA", "title": "Oblivion", "artist_id": "AR1", "year": 2012.0, "duration": 242.0},
		{"song_id": "SOBBB", "title": "Genesis", "artist_id": "AR1", "year": 0.0, "duration": 255.5},
	})
}

func TestLoader_Rows(t *testing.T) {
	store := newStore(t)
	l := New(store, testutil.NewTestLogger(t))
	ctx := context.Background()

	res, err := l.Rows(ctx, schema.Songs, songs())
	require.NoError(t, err)
	assert.Equal(t, &core.TableResult{Table: "songs", Rows: 2, Inserted: 2}, res)

	row, err := store.SelectOne(ctx, `SELECT "year", "duration" FROM "songs" WHERE "song_id" = ?`, "SOBBB")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), 255.5}, row)
}

func TestLoader_RowsRerunSkipsExisting(t *testing.T) {
	store := newStore(t)
	l := New(store, testutil.NewTestLogger(t))
	ctx := context.Background()

	_, err := l.Rows(ctx, schema.Songs, songs())
	require.NoError(t, err)

	res, err := l.Rows(ctx, schema.Songs, songs())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, int64(2), count(t, store, "songs"))
}

func TestLoader_RowsCoercionError(t *testing.T) {
	l := New(newStore(t), nil)
	b := record.NewBatch([]record.Record{{"song_id": "SOAAA", "year": "nineteen"}})

	_, err := l.Rows(context.Background(), schema.Songs, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load songs row 0")
	assert.Contains(t, err.Error(), "column year")
}

type fakeStore struct {
	insertErr error
	bulkErr   error
	inserts   int
	bulk      bytes.Buffer
	bulkCols  []string
}

func (f *fakeStore) Insert(context.Context, string, ...any) error {
	f.inserts++
	return f.insertErr
}

func (f *fakeStore) BulkCopy(_ context.Context, r io.Reader, _ string, columns []string) error {
	f.bulkCols = columns
	_, _ = io.Copy(&f.bulk, r)
	return f.bulkErr
}

func (f *fakeStore) DialectConfig() *core.DialectConfig {
	return &core.DialectConfig{Name: "fake"}
}

func TestLoader_RowsStoreErrorAborts(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection refused")}
	l := New(store, nil)

	res, err := l.Rows(context.Background(), schema.Songs, songs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 0, res.Inserted)
}

func TestLoader_RowsCancelled(t *testing.T) {
	store := &fakeStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(store, nil).Rows(ctx, schema.Songs, songs())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.inserts)
}

var playSource = []string{"ts", "userId", "level", "song_id", "artist_id", "sessionId", "location", "userAgent"}

func plays() *record.Batch {
	return record.NewBatch([]record.Record{
		{"ts": 1541105830796.0, "userId": "39", "level": "free", "song_id": "SOAAA", "artist_id": "AR1",
			"sessionId": 38.0, "location": "San Francisco-Oakland-Hayward, CA", "userAgent": "Mozilla/5.0\t(Mac)"},
		{"ts": 1541106106796.0, "userId": "8", "level": "free", "song_id": nil, "artist_id": nil,
			"sessionId": 139.0, "location": "Phoenix-Mesa-Scottsdale, AZ", "userAgent": "curl"},
	})
}

func TestLoader_Bulk(t *testing.T) {
	store := newStore(t)
	l := New(store, testutil.NewTestLogger(t))
	ctx := context.Background()

	res, err := l.Bulk(ctx, schema.SongPlays, plays(), playSource)
	require.NoError(t, err)
	assert.Equal(t, &core.TableResult{Table: "songplays", Rows: 2, Inserted: 2}, res)

	row, err := store.SelectOne(ctx, `SELECT COUNT("song_id"), SUM("session_id"), MAX("start_time") FROM "songplays"`)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(177), int64(1541106106796)}, row)

	row, err = store.SelectOne(ctx, `SELECT "user_agent" FROM "songplays" WHERE "user_id" = ?`, "39")
	require.NoError(t, err)
	assert.Equal(t, []any{"Mozilla/5.0\t(Mac)"}, row)
}

func TestLoader_BulkWireFormat(t *testing.T) {
	store := &fakeStore{}
	_, err := New(store, nil).Bulk(context.Background(), schema.SongPlays, plays(), playSource)
	require.NoError(t, err)

	assert.Equal(t, schema.SongPlays.ColumnNames(), store.bulkCols)
	assert.Equal(t,
		"1541105830796\t39\tfree\tSOAAA\tAR1\t38\tSan Francisco-Oakland-Hayward, CA\tMozilla/5.0\\t(Mac)\n"+
			"1541106106796\t8\tfree\tUnknown\tUnknown\t139\tPhoenix-Mesa-Scottsdale, AZ\tcurl\n",
		store.bulk.String())
}

func TestLoader_BulkFailureIsReturned(t *testing.T) {
	store := &fakeStore{bulkErr: fmt.Errorf("%w: copy failed", adapter.ErrDuplicateKey)}
	_, err := New(store, nil).Bulk(context.Background(), schema.SongPlays, plays(), playSource)
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrDuplicateKey)
	assert.Contains(t, err.Error(), "failed to bulk load songplays")
}

func TestLoader_BulkEmpty(t *testing.T) {
	store := &fakeStore{}
	res, err := New(store, nil).Bulk(context.Background(), schema.SongPlays, &record.Batch{}, playSource)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)
	assert.Nil(t, store.bulkCols)
}

func TestLoader_BulkColumnMismatch(t *testing.T) {
	_, err := New(&fakeStore{}, nil).Bulk(context.Background(), schema.SongPlays, plays(), []string{"ts"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 source columns for 8 table columns")
}

func TestWriteTSV_FloatsHaveNoDecimals(t *testing.T) {
	table := schema.Table{
		Name: "plays",
		Columns: []schema.Column{
			{Name: "user_id", Kind: schema.Text},
			{Name: "length", Kind: schema.Float},
			{Name: "session_id", Kind: schema.Int},
		},
	}
	b := record.NewBatch([]record.Record{
		{"userId": "39", "length": 242.6, "sessionId": 38.0},
		{"userId": "8", "length": 246.30812, "sessionId": 139.0},
		{"userId": "8", "length": 2.5, "sessionId": 140.0},
		{"userId": "8", "length": nil, "sessionId": 141.0},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, table, b, []string{"userId", "length", "sessionId"}))
	assert.Equal(t,
		"39\t243\t38\n"+
			"8\t246\t139\n"+
			"8\t2\t140\n"+
			"8\tUnknown\t141\n",
		buf.String())
}

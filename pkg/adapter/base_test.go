package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFakeUnique = errors.New("fake: unique violation")

func newMockAdapter(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &BaseSQLAdapter{
		DB:          db,
		IsDuplicate: func(err error) bool { return errors.Is(err, errFakeUnique) },
	}, mock
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
			assert.False(t, base.IsConnected())
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		errMsg    string
	}{
		{
			name:    "exec without connection",
			setupDB: false,
			sql:     "SELECT 1",
			errMsg:  "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE songs").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql: "CREATE TABLE songs (song_id VARCHAR)",
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:    "INVALID SQL",
			errMsg: "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}
			if tt.setupDB {
				var mock sqlmock.Sqlmock
				base, mock = newMockAdapter(t)
				tt.setupMock(mock)
			}

			err := base.Exec(context.Background(), tt.sql)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBaseSQLAdapter_Insert(t *testing.T) {
	const stmt = `INSERT INTO "songs" ("song_id", "title") VALUES (?, ?)`

	t.Run("success", func(t *testing.T) {
		base, mock := newMockAdapter(t)
		mock.ExpectExec(`INSERT INTO "songs"`).
			WithArgs("SOXXX", "Oblivion").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, base.Insert(context.Background(), stmt, "SOXXX", "Oblivion"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate key is classified", func(t *testing.T) {
		base, mock := newMockAdapter(t)
		mock.ExpectExec(`INSERT INTO "songs"`).WillReturnError(errFakeUnique)

		err := base.Insert(context.Background(), stmt, "SOXXX", "Oblivion")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.ErrorIs(t, err, errFakeUnique)
	})

	t.Run("other errors are not duplicates", func(t *testing.T) {
		base, mock := newMockAdapter(t)
		mock.ExpectExec(`INSERT INTO "songs"`).WillReturnError(assert.AnError)

		err := base.Insert(context.Background(), stmt, "SOXXX", "Oblivion")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicateKey)
		assert.Contains(t, err.Error(), "failed to insert row")
	})

	t.Run("not connected", func(t *testing.T) {
		base := &BaseSQLAdapter{}
		assert.ErrorIs(t, base.Insert(context.Background(), stmt), ErrNotConnected)
	})
}

func TestBaseSQLAdapter_SelectOne(t *testing.T) {
	const stmt = `SELECT s.song_id, s.artist_id FROM songs s`

	t.Run("first row is returned", func(t *testing.T) {
		base, mock := newMockAdapter(t)
		rows := sqlmock.NewRows([]string{"song_id", "artist_id"}).
			AddRow([]byte("SOXXX"), "ARYYY").
			AddRow("SOZZZ", "ARZZZ")
		mock.ExpectQuery("SELECT").WithArgs("Oblivion").WillReturnRows(rows)

		row, err := base.SelectOne(context.Background(), stmt, "Oblivion")
		require.NoError(t, err)
		assert.Equal(t, []any{"SOXXX", "ARYYY"}, row)
	})

	t.Run("no rows", func(t *testing.T) {
		base, mock := newMockAdapter(t)
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"song_id", "artist_id"}))

		_, err := base.SelectOne(context.Background(), stmt)
		assert.ErrorIs(t, err, ErrNoRows)
	})

	t.Run("query error", func(t *testing.T) {
		base, mock := newMockAdapter(t)
		mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

		_, err := base.SelectOne(context.Background(), stmt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute query")
	})
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"time"`, QuoteIdent("time"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
	assert.Equal(t, `"a", "b"`, QuoteIdents([]string{"a", "b"}))
}

func TestContainsAny(t *testing.T) {
	err := errors.New("Constraint Error: Duplicate key \"id: 1\" violates primary key constraint")
	assert.True(t, ContainsAny(err, "violates unique constraint", "violates primary key constraint"))
	assert.False(t, ContainsAny(err, "UNIQUE constraint failed"))
	assert.False(t, ContainsAny(nil, "anything"))
}

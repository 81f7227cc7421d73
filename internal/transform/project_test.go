package transform

import (
	"testing"

	"github.com/leapstack-labs/songplays/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userEvents() *record.Batch {
	return record.NewBatch([]record.Record{
		{"userId": "39", "firstName": "Walter", "level": "free", "page": "NextSong"},
		{"userId": nil, "firstName": nil, "level": nil, "page": "Home"},
		{"userId": "8", "firstName": "Kaylee", "level": "free", "page": "NextSong"},
		{"userId": "39", "firstName": "Walter", "level": "paid", "page": "NextSong"},
		{"firstName": "Ghost", "page": "Login"},
	})
}

func TestProject(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		key     string
		want    []record.Record
	}{
		{
			name:    "first occurrence wins",
			columns: []string{"userId", "level"},
			key:     "userId",
			want: []record.Record{
				{"userId": "39", "level": "free"},
				{"userId": "8", "level": "free"},
			},
		},
		{
			name:    "no key keeps duplicates and drops all-nil rows",
			columns: []string{"userId", "level"},
			want: []record.Record{
				{"userId": "39", "level": "free"},
				{"userId": "8", "level": "free"},
				{"userId": "39", "level": "paid"},
			},
		},
		{
			name:    "absent columns become nil",
			columns: []string{"firstName", "gender"},
			want: []record.Record{
				{"firstName": "Walter", "gender": nil},
				{"firstName": "Kaylee", "gender": nil},
				{"firstName": "Walter", "gender": nil},
				{"firstName": "Ghost", "gender": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(userEvents(), tt.columns, tt.key)
			assert.Equal(t, tt.columns, got.Columns)
			assert.Equal(t, tt.want, got.Rows)
		})
	}
}

func TestProject_Idempotent(t *testing.T) {
	cols := []string{"userId", "firstName", "level"}
	once := Project(userEvents(), cols, "userId")
	twice := Project(once, cols, "userId")
	assert.Equal(t, once, twice)
}

func TestProject_KeyUnique(t *testing.T) {
	rows := []record.Record{}
	for i := 0; i < 50; i++ {
		rows = append(rows, record.Record{"start_time": float64(1541105830796 + int64(i%7)), "hour": 20.0})
	}
	got := Project(record.NewBatch(rows), TimeColumns, "start_time")
	require.Len(t, got.Rows, 7)

	seen := map[any]bool{}
	for _, r := range got.Rows {
		assert.False(t, seen[r["start_time"]])
		seen[r["start_time"]] = true
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	in := userEvents()
	before := len(in.Rows[0])
	_ = Project(in, []string{"userId"}, "userId")
	assert.Len(t, in.Rows[0], before)
	assert.Len(t, in.Rows, 5)
}

func TestFilter(t *testing.T) {
	got := Filter(userEvents(), "page", "NextSong")
	require.Len(t, got.Rows, 3)
	for _, r := range got.Rows {
		assert.Equal(t, "NextSong", r["page"])
	}
	assert.Equal(t, userEvents().Columns, got.Columns)
}

func TestRename(t *testing.T) {
	in := record.NewBatch([]record.Record{
		{"artist_id": "AR1", "artist_name": "Grimes", "artist_latitude": nil},
	})
	got := Rename(in, ArtistFields)

	assert.Equal(t, []string{"artist_id", "latitude", "name"}, got.Columns)
	assert.Equal(t, record.Record{"artist_id": "AR1", "name": "Grimes", "latitude": nil}, got.Rows[0])
	assert.Equal(t, "Grimes", in.Rows[0]["artist_name"])
}

package transform

import "github.com/leapstack-labs/songplays/internal/record"

// Static source-to-target field mappings.
var (
	UserFields = map[string]string{
		"userId":    "user_id",
		"firstName": "first_name",
		"lastName":  "last_name",
	}

	ArtistFields = map[string]string{
		"artist_name":      "name",
		"artist_location":  "location",
		"artist_latitude":  "latitude",
		"artist_longitude": "longitude",
	}
)

// Rename returns a copy of b with columns renamed per mapping. Columns absent
// from mapping keep their name.
func Rename(b *record.Batch, mapping map[string]string) *record.Batch {
	name := func(c string) string {
		if to, ok := mapping[c]; ok {
			return to
		}
		return c
	}

	out := &record.Batch{
		Columns: make([]string, len(b.Columns)),
		Rows:    make([]record.Record, len(b.Rows)),
	}
	for i, c := range b.Columns {
		out.Columns[i] = name(c)
	}
	for i, row := range b.Rows {
		renamed := make(record.Record, len(row))
		for k, v := range row {
			renamed[name(k)] = v
		}
		out.Rows[i] = renamed
	}
	return out
}

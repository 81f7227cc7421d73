package transform

import (
	"fmt"

	"github.com/leapstack-labs/songplays/internal/record"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// Columns added to events by AssembleSongPlays.
const (
	SongIDColumn   = "song_id"
	ArtistIDColumn = "artist_id"
)

// AssembleSongPlays attaches the resolved catalog reference at index i to
// event row i. refs must hold exactly one entry per event.
func AssembleSongPlays(events *record.Batch, refs []core.SongRef) (*record.Batch, error) {
	if len(refs) != events.Len() {
		return nil, fmt.Errorf("resolved %d references for %d events", len(refs), events.Len())
	}

	out := &record.Batch{
		Columns: append(append([]string(nil), events.Columns...), SongIDColumn, ArtistIDColumn),
		Rows:    make([]record.Record, len(events.Rows)),
	}
	for i, row := range events.Rows {
		play := make(record.Record, len(row)+2)
		for k, v := range row {
			play[k] = v
		}
		play[SongIDColumn] = refs[i].SongID
		play[ArtistIDColumn] = refs[i].ArtistID
		out.Rows[i] = play
	}
	return out, nil
}

package core

import "time"

// RunStatus represents the status of a pipeline run.
type RunStatus string

// RunStatus values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one execution of the load pipeline.
type Run struct {
	ID          string        `json:"id"`
	Target      string        `json:"target"`
	Status      RunStatus     `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Error       string        `json:"error,omitempty"`
	Tables      []TableResult `json:"tables,omitempty"`
}

// TableResult holds the load counters of a single target table.
type TableResult struct {
	Table    string `json:"table"`
	Rows     int    `json:"rows"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

// SongRef is the catalog reference resolved for one play event.
// Both fields are nil when the catalog has no matching song.
type SongRef struct {
	SongID   any
	ArtistID any
}

// Found reports whether the reference points at a catalog entry.
func (r SongRef) Found() bool {
	return r.SongID != nil || r.ArtistID != nil
}

// Package record reads newline-delimited JSON files into in-memory batches.
package record

import "sort"

// Record is one JSON object decoded from a single input line.
// Numbers decode as float64. Missing keys read as nil.
type Record = map[string]any

// Batch is an ordered set of records with a column list.
type Batch struct {
	// Columns is the sorted union of keys of all rows unless a transform
	// narrowed it.
	Columns []string
	Rows    []Record
}

// NewBatch builds a batch whose columns are the sorted union of the row keys.
func NewBatch(rows []Record) *Batch {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return &Batch{Columns: cols, Rows: rows}
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Values returns the row's values in the order of cols.
func (b *Batch) Values(i int, cols []string) []any {
	out := make([]any, len(cols))
	for j, c := range cols {
		out[j] = b.Rows[i][c]
	}
	return out
}

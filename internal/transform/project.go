package transform

import (
	"fmt"

	"github.com/leapstack-labs/songplays/internal/record"
)

// Project restricts b to columns. When key is set, rows with a nil key are
// dropped and only the first row of each key is kept. Rows whose projected
// values are all nil are always dropped.
//
// Project is idempotent: projecting its result again yields the same batch.
func Project(b *record.Batch, columns []string, key string) *record.Batch {
	cols := append([]string(nil), columns...)
	out := &record.Batch{Columns: cols, Rows: make([]record.Record, 0, b.Len())}
	if b == nil {
		return out
	}

	seen := make(map[any]struct{})
	for _, row := range b.Rows {
		if key != "" {
			k := row[key]
			if k == nil {
				continue
			}
			dk := dedupKey(k)
			if _, dup := seen[dk]; dup {
				continue
			}
			seen[dk] = struct{}{}
		}

		projected := make(record.Record, len(cols))
		empty := true
		for _, c := range cols {
			v := row[c]
			if v != nil {
				empty = false
			}
			projected[c] = v
		}
		if empty {
			continue
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

// dedupKey makes JSON values usable as map keys.
func dedupKey(v any) any {
	switch v.(type) {
	case string, float64, bool, int, int64:
		return v
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// Filter keeps the rows whose column equals value.
func Filter(b *record.Batch, column string, value any) *record.Batch {
	out := &record.Batch{Columns: append([]string(nil), b.Columns...)}
	for _, row := range b.Rows {
		if row[column] == value {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

package transform

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/songplays/internal/record"
)

// TimeColumns are the columns produced by DecomposeTime.
var TimeColumns = []string{"start_time", "hour", "day", "week_of_year", "month", "year", "weekday"}

// DecomposeTime expands the epoch-millisecond column tsColumn of every row
// into UTC calendar fields. Weeks follow ISO 8601 and weekdays count from
// Monday = 0. One output row is produced per input row; callers drop rows
// without a usable timestamp first (see KeepTimestamped).
func DecomposeTime(b *record.Batch, tsColumn string) (*record.Batch, error) {
	out := &record.Batch{
		Columns: append([]string(nil), TimeColumns...),
		Rows:    make([]record.Record, 0, b.Len()),
	}
	for i, row := range b.Rows {
		ms, err := epochMillis(row[tsColumn])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid %s: %w", i, tsColumn, err)
		}
		out.Rows = append(out.Rows, TimeRow(ms))
	}
	return out, nil
}

// RowError describes a row dropped by a validation step.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// KeepTimestamped splits b into the rows whose tsColumn holds a usable
// epoch-millisecond value and the errors of the rows that do not. Kept rows
// stay in order and are shared, not copied.
func KeepTimestamped(b *record.Batch, tsColumn string) (*record.Batch, []*RowError) {
	out := &record.Batch{Columns: b.Columns, Rows: make([]record.Record, 0, b.Len())}
	var rejected []*RowError
	for i, row := range b.Rows {
		if _, err := epochMillis(row[tsColumn]); err != nil {
			rejected = append(rejected, &RowError{Row: i, Err: fmt.Errorf("invalid %s: %w", tsColumn, err)})
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rejected
}

// TimeRow decomposes a single epoch-millisecond timestamp.
func TimeRow(ms int64) record.Record {
	t := time.UnixMilli(ms).UTC()
	_, week := t.ISOWeek()
	return record.Record{
		"start_time":   float64(ms),
		"hour":         float64(t.Hour()),
		"day":          float64(t.Day()),
		"week_of_year": float64(week),
		"month":        float64(t.Month()),
		"year":         float64(t.Year()),
		"weekday":      float64((int(t.Weekday()) + 6) % 7),
	}
}

func epochMillis(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		return int64(x), nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", x)
		}
		return int64(f), nil
	case nil:
		return 0, fmt.Errorf("missing timestamp")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

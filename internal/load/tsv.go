package load

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/leapstack-labs/songplays/internal/record"
	"github.com/leapstack-labs/songplays/internal/schema"
	"github.com/leapstack-labs/songplays/pkg/adapter"
)

// WriteTSV serializes b for BulkCopy: one line per row, tab separated, no
// header. Values are read from sourceColumns and coerced to the kind of the
// table column at the same position. nil is written as adapter.NullToken and
// floats carry no decimal digits.
func WriteTSV(w io.Writer, table schema.Table, b *record.Batch, sourceColumns []string) error {
	bw := bufio.NewWriter(w)
	for i, row := range b.Rows {
		for j, src := range sourceColumns {
			if j > 0 {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
			}
			v, err := table.Columns[j].Kind.Coerce(row[src])
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, src, err)
			}
			if _, err := bw.WriteString(formatField(v)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatField(v any) string {
	switch x := v.(type) {
	case nil:
		return adapter.NullToken
	case string:
		return adapter.EscapeTSV(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', 0, 64)
	default:
		return adapter.EscapeTSV(fmt.Sprint(x))
	}
}

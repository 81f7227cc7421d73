package adapter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NullToken is the literal written for NULL values in bulk-copy buffers.
const NullToken = "Unknown"

var tsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

// EscapeTSV escapes a field for the tab-separated bulk-copy format.
// The escapes match PostgreSQL's COPY text format.
func EscapeTSV(s string) string {
	return tsvEscaper.Replace(s)
}

// ReadTSV decodes a bulk-copy buffer into rows of exactly width fields.
// Fields equal to NullToken become nil, all other fields are unescaped strings.
// Adapters without a native COPY use it to replay the buffer as inserts.
func ReadTSV(r io.Reader, width int) ([][]any, error) {
	br := bufio.NewReader(r)
	var rows [][]any

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read line %d: %w", lineNo, err)
		}
		line = strings.TrimSuffix(line, "\n")

		if line != "" {
			fields := strings.Split(line, "\t")
			if len(fields) != width {
				return nil, fmt.Errorf("line %d: expected %d fields, got %d", lineNo, width, len(fields))
			}
			row := make([]any, width)
			for i, f := range fields {
				if f == NullToken {
					continue
				}
				row[i] = unescapeTSV(f)
			}
			rows = append(rows, row)
		}

		if errors.Is(err, io.EOF) {
			return rows, nil
		}
	}
}

func unescapeTSV(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

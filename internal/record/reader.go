package record

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// MaxLineSize bounds a single input line.
const MaxLineSize = 16 << 20

// maxLoggedContent truncates offending lines in warnings.
const maxLoggedContent = 200

// Stats counts what a read saw.
type Stats struct {
	Files   int
	Lines   int
	Records int
	Invalid int
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Lines += o.Lines
	s.Records += o.Records
	s.Invalid += o.Invalid
}

// Reader parses newline-delimited JSON files.
type Reader struct {
	workers int
	logger  *slog.Logger
}

// NewReader creates a reader that parses up to workers files at once.
func NewReader(workers int, logger *slog.Logger) *Reader {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{workers: workers, logger: logger}
}

type fileResult struct {
	rows  []Record
	stats Stats
}

// ReadFiles parses every file and returns the valid records in path order,
// then line order. Lines that are not a JSON object are logged and skipped.
// Open and read errors abort the whole read.
func (r *Reader) ReadFiles(ctx context.Context, paths []string) (*Batch, *Stats, error) {
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range paths {
		g.Go(func() error {
			res, err := r.readFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stats := &Stats{}
	var rows []Record
	for _, res := range results {
		rows = append(rows, res.rows...)
		stats.add(res.stats)
	}

	r.logger.Debug("records read",
		slog.Int("files", stats.Files),
		slog.Int("records", stats.Records),
		slog.Int("invalid", stats.Invalid))

	return NewBatch(rows), stats, nil
}

func (r *Reader) readFile(ctx context.Context, path string) (fileResult, error) {
	res := fileResult{stats: Stats{Files: 1}}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReaderSize(f, 64*1024)
	var buf []byte

	lineNo := 0
	for {
		raw, tooLong, err := readLine(br, buf[:0])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read %s: %w", path, err)
		}
		buf = raw

		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		if tooLong {
			res.stats.Lines++
			res.stats.Invalid++
			r.logger.Warn("invalid record, skipping",
				slog.String("file", path),
				slog.Int("line", lineNo),
				slog.String("error", fmt.Sprintf("line longer than %d bytes", MaxLineSize)))
			continue
		}

		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		res.stats.Lines++

		rec, err := ParseLine(line)
		if err != nil {
			res.stats.Invalid++
			r.logger.Warn("invalid record, skipping",
				slog.String("file", path),
				slog.Int("line", lineNo),
				slog.String("content", truncate(string(line), maxLoggedContent)),
				slog.String("error", err.Error()))
			continue
		}
		res.rows = append(res.rows, rec)
		res.stats.Records++
	}

	return res, ctx.Err()
}

// readLine appends the next line, without its terminator, to buf. A line
// longer than MaxLineSize is consumed to its end and reported as too long
// with no content. io.EOF is returned only when no line is left.
func readLine(br *bufio.Reader, buf []byte) ([]byte, bool, error) {
	tooLong := false
	read := false
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && read {
				return buf, tooLong, nil
			}
			return buf, tooLong, err
		}
		read = true
		if !tooLong {
			if len(buf)+len(frag) > MaxLineSize {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return buf, tooLong, nil
		}
	}
}

// ParseLine decodes one line that must hold a JSON object.
func ParseLine(line []byte) (Record, error) {
	var v any
	if err := json.Unmarshal(line, &v); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return obj, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package scan discovers input files under a data root.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtension is used when no extension is configured.
const DefaultExtension = ".json"

// Files returns the absolute paths of all files under root whose name ends in
// ext (case-insensitive), sorted lexically.
//
// A missing root is logged and yields no files. Unreadable subdirectories are
// logged and skipped.
func Files(ctx context.Context, root, ext string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if ext == "" {
		ext = DefaultExtension
	}
	ext = strings.ToLower(ext)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("root path does not exist", slog.String("root", absRoot))
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", absRoot, err)
	}

	if !info.IsDir() {
		if strings.HasSuffix(strings.ToLower(info.Name()), ext) {
			return []string{absRoot}, nil
		}
		return []string{}, nil
	}

	files := []string{}
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == absRoot {
				return walkErr
			}
			logger.Warn("skipping unreadable path", slog.String("path", path), slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", absRoot, err)
	}

	sort.Strings(files)
	logger.Info("files found", slog.String("root", absRoot), slog.Int("count", len(files)))
	return files, nil
}

package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/tsuyukimakoto/casket/internal/filesystem"
	"github.com/tsuyukimakoto/casket/internal/logging"
)

// ErrNotDirectory is returned by Scan when the source root is not a directory.
var ErrNotDirectory = errors.New("source is not a directory")

// Scan returns every regular file below root in lexical order. Symbolic
// links and other special files are skipped. Any error reading the tree
// aborts the scan.
func Scan(root string) ([]string, error) {
	info, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		} else if !d.IsDir() {
			logging.Debug("scan: skipping %s (%s)", path, d.Type())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	logging.Debug("scan: %d files under %s", len(paths), root)
	return paths, nil
}

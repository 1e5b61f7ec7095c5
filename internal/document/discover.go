package document

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks dir for supported documents. Hidden directories are
// skipped, results are sorted by path, and a non-empty query keeps only
// files whose name contains it (case-insensitive).
func Discover(dir, query string) ([]Document, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var docs []Document

	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // Keep walking past unreadable entries
		}

		if d.IsDir() {
			if path != absDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks and other special files are not followed.
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}

		format, ok := FormatForPath(d.Name())
		if !ok {
			return nil
		}

		if query != "" && !strings.Contains(strings.ToLower(d.Name()), query) {
			return nil
		}

		doc := Document{Path: path, Name: d.Name(), Format: format}
		if fi, err := d.Info(); err == nil {
			doc.Size = fi.Size()
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

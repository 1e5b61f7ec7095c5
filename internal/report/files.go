package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a3tai/doc-extractor/internal/extraction"
)

// ErrExists is returned by WriteFile when the target exists and overwriting
// is disabled.
var ErrExists = errors.New("output file already exists")

const timestampLayout = "20060102_150405"

// ReportFilename names a per-document report "<INITIALS>-<AGE>.txt", or
// "output_<timestamp>.txt" when initials or age are unknown.
func ReportFilename(info extraction.PersonalInfo, now time.Time) string {
	initials := info.Initials()
	if initials != "" && info.Age != nil {
		return fmt.Sprintf("%s-%d.txt", initials, *info.Age)
	}
	return fmt.Sprintf("output_%s.txt", now.Format(timestampLayout))
}

// BatchFilename names a batch table "batch_<timestamp>.<ext>".
func BatchFilename(now time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "txt"
	}
	return fmt.Sprintf("batch_%s.%s", now.Format(timestampLayout), ext)
}

// WriteFile writes data to path, creating parent directories. Unless
// overwrite is set an existing file is left untouched and ErrExists
// returned.
func WriteFile(path string, data []byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return f.Close()
}

package document

import (
	"fmt"
	"os"
)

// DefaultMaxFileSize is the largest document accepted by default.
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// Validator checks a document on disk before it is handed to a parser.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator; a non-positive limit selects DefaultMaxFileSize.
func NewValidator(maxFileSize int64) *Validator {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Validator{maxFileSize: maxFileSize}
}

// MaxFileSize returns the configured size limit in bytes.
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// Validate checks that the document exists, is a regular non-empty file
// within the size limit, and has a supported extension.
func (v *Validator) Validate(doc Document) error {
	if doc.Path == "" {
		return newParseError(KindNotFound, doc.Path, fmt.Errorf("path cannot be empty"))
	}

	if _, ok := FormatForPath(doc.Path); !ok {
		return newParseError(KindUnsupported, doc.Path, fmt.Errorf("file: %s", doc.Name))
	}

	info, err := os.Stat(doc.Path)
	if os.IsNotExist(err) {
		return newParseError(KindNotFound, doc.Path, fmt.Errorf("file: %s", doc.Path))
	}
	if err != nil {
		return newParseError(KindUnreadable, doc.Path, fmt.Errorf("cannot access file: %w", err))
	}

	if info.IsDir() {
		return newParseError(KindUnreadable, doc.Path, fmt.Errorf("path is a directory, not a file: %s", doc.Path))
	}

	if info.Size() == 0 {
		return newParseError(KindUnreadable, doc.Path, fmt.Errorf("file is empty: %s", doc.Path))
	}

	if info.Size() > v.maxFileSize {
		return newParseError(KindTooLarge, doc.Path,
			fmt.Errorf("%d bytes (max: %d bytes)", info.Size(), v.maxFileSize))
	}

	return nil
}

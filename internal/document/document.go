package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a supported document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
)

var extensionFormats = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".doc":  FormatDOC,
}

// FormatForPath maps a file extension (case-insensitive) to a Format.
func FormatForPath(path string) (Format, bool) {
	f, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Document is a reference to a source file selected for extraction.
type Document struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Format Format `json:"format"`
	Size   int64  `json:"size"`
}

// FromPath builds a Document reference. The file is stat'ed when present so
// Size is populated; a missing file is reported later by the validator.
func FromPath(path string) (Document, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return Document{}, newParseError(KindUnsupported, path,
			fmt.Errorf("extension %q", filepath.Ext(path)))
	}

	doc := Reference(path)
	doc.Format = format
	return doc, nil
}

// Reference builds a Document for any path. Format is left empty for
// unsupported extensions so the validator rejects the file when it is
// loaded, which lets a batch report it as a warning and carry on.
func Reference(path string) Document {
	doc := Document{
		Path: path,
		Name: filepath.Base(path),
	}
	if format, ok := FormatForPath(path); ok {
		doc.Format = format
	}
	if info, err := os.Stat(path); err == nil {
		doc.Size = info.Size()
	}
	return doc
}

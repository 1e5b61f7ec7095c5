package document

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a document could not produce pages.
type ErrorKind string

const (
	KindUnsupported       ErrorKind = "unsupported"
	KindNotFound          ErrorKind = "not_found"
	KindUnreadable        ErrorKind = "unreadable"
	KindPasswordProtected ErrorKind = "password_protected"
	KindNoText            ErrorKind = "no_text"
	KindTooLarge          ErrorKind = "too_large"
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrUnsupported       = errors.New("unsupported document format")
	ErrNotFound          = errors.New("document does not exist")
	ErrUnreadable        = errors.New("document is unreadable")
	ErrPasswordProtected = errors.New("password-protected documents are not supported")
	ErrNoText            = errors.New("document has no extractable text (scanned documents require OCR)")
	ErrTooLarge          = errors.New("document exceeds the maximum file size")
)

var kindSentinels = map[ErrorKind]error{
	KindUnsupported:       ErrUnsupported,
	KindNotFound:          ErrNotFound,
	KindUnreadable:        ErrUnreadable,
	KindPasswordProtected: ErrPasswordProtected,
	KindNoText:            ErrNoText,
	KindTooLarge:          ErrTooLarge,
}

// ParseError reports a document that failed validation or parsing.
type ParseError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", kindSentinels[e.Kind], e.Err)
	}
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		return sentinel.Error()
	}
	return string(e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *ParseError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newParseError(kind ErrorKind, path string, err error) *ParseError {
	return &ParseError{Kind: kind, Path: path, Err: err}
}

// KindOf returns the kind of a ParseError anywhere in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

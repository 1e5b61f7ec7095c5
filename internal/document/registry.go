package document

import (
	"context"
	"fmt"
)

// Parser turns one document format into pages.
type Parser interface {
	Format() Format
	Parse(ctx context.Context, path string) ([]Page, error)
}

// Loader produces the pages of a document. Registry is the production
// implementation; tests substitute their own.
type Loader interface {
	Load(ctx context.Context, doc Document) ([]Page, error)
}

// Registry selects a parser by document format.
type Registry struct {
	parsers   map[Format]Parser
	validator *Validator
}

// NewRegistry creates an empty registry using the given validator.
func NewRegistry(validator *Validator) *Registry {
	if validator == nil {
		validator = NewValidator(0)
	}
	return &Registry{
		parsers:   make(map[Format]Parser),
		validator: validator,
	}
}

// NewDefaultRegistry registers the PDF, DOCX and DOC parsers.
func NewDefaultRegistry(maxFileSize int64) *Registry {
	r := NewRegistry(NewValidator(maxFileSize))
	r.Register(NewPDFParser())
	r.Register(NewDOCXParser())
	r.Register(NewDOCParser(""))
	return r
}

// Register adds or replaces the parser for its format.
func (r *Registry) Register(p Parser) {
	r.parsers[p.Format()] = p
}

// Validator returns the validator applied before parsing.
func (r *Registry) Validator() *Validator {
	return r.validator
}

// Load validates the document and parses it with the matching parser.
// Every failure is a *ParseError.
func (r *Registry) Load(ctx context.Context, doc Document) ([]Page, error) {
	if err := r.validator.Validate(doc); err != nil {
		return nil, err
	}

	p, ok := r.parsers[doc.Format]
	if !ok {
		return nil, newParseError(KindUnsupported, doc.Path, fmt.Errorf("no parser for format %q", doc.Format))
	}

	if err := ctx.Err(); err != nil {
		return nil, newParseError(KindUnreadable, doc.Path, err)
	}

	pages, err := p.Parse(ctx, doc.Path)
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, newParseError(KindUnreadable, doc.Path, err)
	}

	if len(pages) == 0 || !HasText(pages) {
		return nil, newParseError(KindNoText, doc.Path, nil)
	}

	return pages, nil
}

package extraction

import (
	"fmt"
	"strconv"
	"time"

	"github.com/a3tai/doc-extractor/internal/document"
	"github.com/a3tai/doc-extractor/internal/logger"
)

// Warning messages for unresolved identity fields.
const (
	WarnFirstNameMissing = "First name not found in document"
	WarnIDMissing        = "ID number not found in document"
)

// Engine runs keyword matching, number association and identity
// extraction over one document. An Engine holds no per-document state and
// may be reused.
type Engine struct {
	keywords *KeywordMatcher
	numbers  *NumberExtractor
	personal *PersonalInfoExtractor
	log      *logger.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l.With("extraction") }
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an extraction engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		keywords: NewKeywordMatcher(),
		numbers:  NewNumberExtractor(),
		personal: NewPersonalInfoExtractor(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes pages with no document reference attached.
func (e *Engine) Extract(pages []document.Page, keywords []string) *ExtractionResult {
	return e.ExtractDocument(document.Document{}, pages, keywords)
}

// ExtractDocument processes one document. It always returns a result:
// failures are recorded in Errors and Warnings. Every keyword appears in
// Matches once per occurrence, or once as not_found.
func (e *Engine) ExtractDocument(doc document.Document, pages []document.Page, keywords []string) *ExtractionResult {
	start := e.now()
	result := &ExtractionResult{
		Document:     doc.Name,
		Path:         doc.Path,
		PersonalInfo: PersonalInfo{ScriptProfile: ScriptUnknown},
		Matches:      []Match{},
		PageCount:    len(pages),
	}
	defer func() {
		result.ElapsedSeconds = e.now().Sub(start).Seconds()
	}()

	if len(pages) == 0 || !document.HasText(pages) {
		result.Errors = append(result.Errors, ExtractionError{
			Kind:    ErrorNoPages,
			Message: "No pages could be extracted from document",
			Context: map[string]string{"document": doc.Name},
		})
		e.log.Warn().Str("document", doc.Name).Msg("No pages to extract")
		return result
	}

	loc := NewTextLocator(pages)
	for _, kw := range NormalizeKeywords(keywords) {
		matches, err := e.processKeyword(loc, kw)
		if err != nil {
			result.Errors = append(result.Errors, *err)
			result.Matches = append(result.Matches, Match{Keyword: kw, Status: StatusNotFound})
			continue
		}
		for _, m := range matches {
			if m.Status == StatusAmbiguous {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s (page %d, line %d): %s", m.Keyword, m.Page, m.Line, m.Warning))
			}
		}
		result.Matches = append(result.Matches, matches...)
	}

	info, err := e.extractPersonal(pages)
	if err != nil {
		result.Errors = append(result.Errors, *err)
	} else {
		result.PersonalInfo = info
	}

	if result.PersonalInfo.FirstName == "" {
		result.Warnings = append(result.Warnings, WarnFirstNameMissing)
	}
	if result.PersonalInfo.IDPrefix == "" {
		result.Warnings = append(result.Warnings, WarnIDMissing)
	}

	e.log.Debug().
		Str("document", doc.Name).
		Int("pages", len(pages)).
		Int("matches", len(result.Matches)).
		Int("found", result.FoundCount()).
		Msg("Document extracted")

	return result
}

// processKeyword matches one keyword and extracts a value per occurrence.
// A panic is converted into a keyword_processing error.
func (e *Engine) processKeyword(loc *TextLocator, keyword string) (matches []Match, xerr *ExtractionError) {
	page := 0
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			xerr = &ExtractionError{
				Kind:    ErrorKeywordProcessing,
				Message: fmt.Sprintf("Error processing keyword '%s': %v", keyword, r),
				Context: map[string]string{"keyword": keyword, "page": strconv.Itoa(page)},
			}
			e.log.Error().Str("keyword", keyword).Interface("panic", r).Msg("Keyword processing failed")
		}
	}()

	occurrences := e.keywords.MatchKeyword(loc, keyword)
	if len(occurrences) == 0 {
		return []Match{{Keyword: keyword, Status: StatusNotFound}}, nil
	}

	matches = make([]Match, 0, len(occurrences))
	for _, occ := range occurrences {
		page = occ.Page
		matches = append(matches, e.numbers.Extract(loc, occ))
	}
	return matches, nil
}

func (e *Engine) extractPersonal(pages []document.Page) (info PersonalInfo, xerr *ExtractionError) {
	defer func() {
		if r := recover(); r != nil {
			xerr = &ExtractionError{
				Kind:    ErrorPersonalInfo,
				Message: fmt.Sprintf("Error extracting personal information: %v", r),
			}
			e.log.Error().Interface("panic", r).Msg("Personal information extraction failed")
		}
	}()
	return e.personal.Extract(pages), nil
}

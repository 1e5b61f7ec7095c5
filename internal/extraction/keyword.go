package extraction

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/doc-extractor/internal/document"
)

// MaxKeywordLength is the longest keyword accepted, in characters.
const MaxKeywordLength = 100

// KeywordMatcher finds every occurrence of a keyword set in document text.
type KeywordMatcher struct{}

// NewKeywordMatcher creates a keyword matcher.
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{}
}

// Match returns all occurrences of keywords in pages, grouped by keyword in
// the given order and by page, line and column within a keyword.
func (m *KeywordMatcher) Match(pages []document.Page, keywords []string) []KeywordOccurrence {
	loc := NewTextLocator(pages)
	var out []KeywordOccurrence
	for _, kw := range NormalizeKeywords(keywords) {
		out = append(out, m.MatchKeyword(loc, kw)...)
	}
	return out
}

// MatchKeyword returns the occurrences of a single keyword.
func (m *KeywordMatcher) MatchKeyword(loc *TextLocator, keyword string) []KeywordOccurrence {
	return loc.FindAll(keyword)
}

// NormalizeKeywords trims and NFC-normalizes keywords, dropping blanks and
// case-insensitive duplicates. The first spelling of a keyword wins.
func NormalizeKeywords(keywords []string) []string {
	caser := cases.Fold()
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = norm.NFC.String(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		key := caser.String(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}

// ValidateKeywords rejects keywords longer than MaxKeywordLength.
func ValidateKeywords(keywords []string) error {
	for _, kw := range keywords {
		if utf8.RuneCountInString(kw) > MaxKeywordLength {
			return fmt.Errorf("keyword exceeds %d characters: %.20q", MaxKeywordLength, kw)
		}
	}
	return nil
}

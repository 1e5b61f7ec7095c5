package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// numberToken is a digit run with optional comma groups and an optional
	// decimal part. Group sizes are checked afterwards so badly grouped
	// values are still reported.
	numberToken = regexp.MustCompile(`\d+(?:,\d+)*(?:\.\d+)?`)
	// groupedInteger is an integer with well-formed thousands groups.
	groupedInteger = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// NumberExtractor associates a keyword occurrence with the next number
// that follows it in reading order.
type NumberExtractor struct{}

// NewNumberExtractor creates a number extractor.
func NewNumberExtractor() *NumberExtractor {
	return &NumberExtractor{}
}

// Extract scans forward from the end of the keyword, across lines and
// pages with no distance limit, and classifies the first number found.
// A number glued to a preceding letter (as in "B12") is skipped unless it
// directly follows the keyword.
func (n *NumberExtractor) Extract(loc *TextLocator, occ KeywordOccurrence) Match {
	m := Match{
		Keyword: occ.Keyword,
		Page:    occ.Page,
		Line:    occ.Line,
		Status:  StatusNotFound,
	}

	loc.walkFrom(occ, func(_ position, text string, from int) bool {
		if from > len(text) {
			return false
		}
		for _, span := range numberToken.FindAllStringIndex(text[from:], -1) {
			start := from + span[0]
			if start > from {
				if r, _ := utf8.DecodeLastRuneInString(text[:start]); unicode.IsLetter(r) {
					continue
				}
			}
			m.Value, m.Status, m.Warning = ClassifyNumber(text[start : from+span[1]])
			return true
		}
		return false
	})

	return m
}

// ClassifyNumber interprets a numeric token. Commas are always thousands
// separators and '.' is always the decimal point. The returned value has
// commas removed. Comma-grouped integers are ambiguous because the comma
// might have been meant as a decimal separator.
func ClassifyNumber(token string) (value string, status Status, warning string) {
	value = strings.ReplaceAll(token, ",", "")
	if !strings.Contains(token, ",") {
		return value, StatusFound, ""
	}

	intPart, _, hasDecimal := strings.Cut(token, ".")
	if !groupedInteger.MatchString(intPart) {
		return value, StatusAmbiguous,
			fmt.Sprintf("Number '%s' has unusual format and may be ambiguous", token)
	}
	if hasDecimal {
		return value, StatusFound, ""
	}
	return value, StatusAmbiguous,
		fmt.Sprintf("Number '%s' interpreted as thousands separator. If this is incorrect, please review the document.", token)
}

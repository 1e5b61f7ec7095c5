// Package extraction locates keyword-associated numbers and labeled
// identity fields in paginated document text.
package extraction

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Status classifies a keyword match.
type Status string

const (
	StatusFound     Status = "found"
	StatusNotFound  Status = "not_found"
	StatusAmbiguous Status = "ambiguous"
)

// ScriptProfile names the writing systems present in identity fields.
type ScriptProfile string

const (
	ScriptLatin    ScriptProfile = "latin"
	ScriptCyrillic ScriptProfile = "cyrillic"
	ScriptMixed    ScriptProfile = "mixed"
	ScriptUnknown  ScriptProfile = "unknown"
)

// KeywordOccurrence is one physical appearance of a keyword. Start and End
// are byte offsets of the keyword within LineText.
type KeywordOccurrence struct {
	Keyword  string `json:"keyword"`
	Page     int    `json:"page"`
	Line     int    `json:"line"`
	LineText string `json:"line_text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Match is the value associated with one keyword occurrence. Value is
// empty when nothing was found. Page and Line locate the keyword; both are
// zero for a keyword that never occurs.
type Match struct {
	Keyword string `json:"keyword"`
	Value   string `json:"value,omitempty"`
	Page    int    `json:"page,omitempty"`
	Line    int    `json:"line,omitempty"`
	Status  Status `json:"status"`
	Warning string `json:"warning,omitempty"`
}

// PersonalInfo holds the labeled identity fields of one document.
type PersonalInfo struct {
	FirstName     string        `json:"first_name,omitempty"`
	MiddleName    string        `json:"middle_name,omitempty"`
	LastName      string        `json:"last_name,omitempty"`
	IDPrefix      string        `json:"id_prefix,omitempty"`
	Age           *int          `json:"age,omitempty"`
	ScriptProfile ScriptProfile `json:"script_profile"`
	// SourcePage is the page of the first field to resolve; SourceField
	// names that field.
	SourcePage  int    `json:"source_page,omitempty"`
	SourceField string `json:"source_field,omitempty"`
	Complete    bool   `json:"complete"`
}

// FullName joins the resolved name parts with single spaces. A last name
// already ending a multi-word first name is not repeated.
func (p PersonalInfo) FullName() string {
	var parts []string
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	full := strings.Join(parts, " ")
	if p.LastName != "" && p.MiddleName == "" && strings.HasSuffix(p.FirstName, " "+p.LastName) {
		return p.FirstName
	}
	return full
}

// Initials takes the first letter of each whitespace-separated part of the
// full name, uppercased.
func (p PersonalInfo) Initials() string {
	return Initials(p.FullName())
}

// Initials derives initials from an arbitrary full name.
func Initials(fullName string) string {
	var b strings.Builder
	for _, part := range strings.Fields(fullName) {
		for _, r := range part {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	return b.String()
}

// AgeString returns the age as text, or "" when unknown.
func (p PersonalInfo) AgeString() string {
	if p.Age == nil {
		return ""
	}
	return fmt.Sprintf("%d", *p.Age)
}

// ErrorKind classifies a non-fatal extraction error.
type ErrorKind string

const (
	ErrorNoPages           ErrorKind = "no_pages"
	ErrorKeywordProcessing ErrorKind = "keyword_processing"
	ErrorPersonalInfo      ErrorKind = "personal_info"
	ErrorExtraction        ErrorKind = "extraction"
)

// ExtractionError is an error recorded on a result rather than returned.
type ExtractionError struct {
	Kind    ErrorKind         `json:"kind"`
	Message string            `json:"message"`
	Context map[string]string `json:"context,omitempty"`
}

func (e ExtractionError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+e.Context[k])
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(pairs, ", "))
}

// ExtractionResult aggregates everything extracted from one document.
type ExtractionResult struct {
	Document       string            `json:"document"`
	Path           string            `json:"path,omitempty"`
	PersonalInfo   PersonalInfo      `json:"personal_info"`
	Matches        []Match           `json:"matches"`
	Errors         []ExtractionError `json:"errors,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
	PageCount      int               `json:"page_count"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
}

func (r *ExtractionResult) countStatus(s Status) int {
	n := 0
	for _, m := range r.Matches {
		if m.Status == s {
			n++
		}
	}
	return n
}

func (r *ExtractionResult) FoundCount() int     { return r.countStatus(StatusFound) }
func (r *ExtractionResult) NotFoundCount() int  { return r.countStatus(StatusNotFound) }
func (r *ExtractionResult) AmbiguousCount() int { return r.countStatus(StatusAmbiguous) }

// HasErrors reports whether any error was recorded.
func (r *ExtractionResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// StatusSummary counts matches by status.
func (r *ExtractionResult) StatusSummary() map[Status]int {
	return map[Status]int{
		StatusFound:     r.FoundCount(),
		StatusNotFound:  r.NotFoundCount(),
		StatusAmbiguous: r.AmbiguousCount(),
	}
}

// FirstFound returns the first found value for keyword in match order.
func (r *ExtractionResult) FirstFound(keyword string) (string, bool) {
	for _, m := range r.Matches {
		if m.Keyword == keyword && m.Status == StatusFound {
			return m.Value, true
		}
	}
	return "", false
}

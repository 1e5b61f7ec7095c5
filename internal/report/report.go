package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/a3tai/doc-extractor/internal/extraction"
)

const (
	notFoundCell  = "Not found"
	ambiguousMark = "[Ambiguous]"
)

// RenderReport formats one document's result as a human-readable report.
// Keyword values are laid out one column per keyword in request order and
// one row per occurrence.
func (f *TableFormatter) RenderReport(res *extraction.ExtractionResult, keywords []string, generatedAt time.Time) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("Document: %s", res.Document)
	line("Processed: %s", generatedAt.Format("2006-01-02 15:04:05"))
	line("")

	line("--- Personal Information ---")
	info := res.PersonalInfo
	line("First Name: %s", orNotFound(info.FirstName))
	if info.MiddleName != "" {
		line("Middle Name: %s", info.MiddleName)
	}
	line("Last Name: %s", orNotFound(info.LastName))
	if info.IDPrefix != "" {
		line("ID Number: %s***", info.IDPrefix)
	} else {
		line("ID Number: %s", notFoundCell)
	}
	line("Age: %s", orNotFound(info.AgeString()))
	if initials := info.Initials(); initials != "" {
		line("Initials: %s", initials)
	}
	if info.ScriptProfile != "" && info.ScriptProfile != extraction.ScriptUnknown {
		line("Character Set: %s", strings.ToUpper(string(info.ScriptProfile[:1]))+string(info.ScriptProfile[1:]))
	}
	if info.SourcePage > 0 {
		line("Source: page %d (%s)", info.SourcePage, info.SourceField)
	}
	line("")

	line("--- Keyword Extractions ---")
	if len(res.Matches) == 0 {
		line("No keyword extractions performed")
	} else {
		headers, rows := matchGrid(res.Matches, keywords)
		b.WriteString(f.Format(headers, rows))
	}
	line("")

	line("--- Processing Summary ---")
	kws := matchKeywords(res.Matches, keywords)
	if len(kws) > 0 {
		line("Total keywords: %d (%s)", len(kws), strings.Join(kws, ", "))
	} else {
		line("Total keywords: 0")
	}
	line("Pages: %d", res.PageCount)
	line("Successful extractions: %d", res.FoundCount())
	line("Not found: %d", res.NotFoundCount())
	if n := res.AmbiguousCount(); n > 0 {
		line("Ambiguous: %d", n)
	}
	line("Processing time: %.2f seconds", res.ElapsedSeconds)
	line("")

	line("--- Warnings ---")
	if len(res.Warnings) == 0 {
		line("None")
	}
	for _, w := range res.Warnings {
		line("- %s", w)
	}
	line("")

	line("--- Errors ---")
	if len(res.Errors) == 0 {
		line("None")
	}
	for _, e := range res.Errors {
		line("- %s", e.Message)
	}

	return b.String()
}

// matchKeywords lists the keywords present in matches, in request order
// followed by any others in first-seen order.
func matchKeywords(matches []extraction.Match, keywords []string) []string {
	present := make(map[string]bool)
	for _, m := range matches {
		present[m.Keyword] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, kw := range keywords {
		if present[kw] && !seen[kw] {
			out = append(out, kw)
			seen[kw] = true
		}
	}
	for _, m := range matches {
		if !seen[m.Keyword] {
			out = append(out, m.Keyword)
			seen[m.Keyword] = true
		}
	}
	return out
}

func matchGrid(matches []extraction.Match, keywords []string) ([]string, [][]string) {
	headers := matchKeywords(matches, keywords)
	grouped := make(map[string][]extraction.Match, len(headers))
	depth := 0
	for _, m := range matches {
		grouped[m.Keyword] = append(grouped[m.Keyword], m)
		if n := len(grouped[m.Keyword]); n > depth {
			depth = n
		}
	}

	rows := make([][]string, depth)
	for i := range rows {
		row := make([]string, len(headers))
		for c, kw := range headers {
			if i < len(grouped[kw]) {
				row[c] = matchCell(grouped[kw][i])
			}
		}
		rows[i] = row
	}
	return headers, rows
}

func matchCell(m extraction.Match) string {
	switch m.Status {
	case extraction.StatusFound:
		return m.Value
	case extraction.StatusAmbiguous:
		return m.Value + " " + ambiguousMark
	default:
		return notFoundCell
	}
}

func orNotFound(s string) string {
	if s == "" {
		return notFoundCell
	}
	return s
}

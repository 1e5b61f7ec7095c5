// Package report renders extraction results as aligned plain text tables,
// per-document reports and spreadsheets.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/a3tai/doc-extractor/internal/batch"
)

// CellSeparator terminates every cell, including the last one on a line.
const CellSeparator = "; "

// Fixed leading columns of the batch table.
const (
	HeaderInitials = "Initials"
	HeaderAge      = "Age"
)

// TableFormatter renders column-aligned text. Widths are measured in
// terminal cells with East Asian ambiguous runes counted as narrow, so
// output does not depend on the locale.
type TableFormatter struct {
	cond *runewidth.Condition
}

// NewTableFormatter creates a formatter.
func NewTableFormatter() *TableFormatter {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	return &TableFormatter{cond: cond}
}

// Table returns the header and rows of a batch: Initials, Age and one
// column per keyword holding the first found value for that keyword.
func Table(b *batch.Result) (headers []string, rows [][]string) {
	headers = append([]string{HeaderInitials, HeaderAge}, b.Keywords...)
	rows = make([][]string, 0, len(b.Results))
	for _, res := range b.Results {
		row := make([]string, 0, len(headers))
		row = append(row, res.PersonalInfo.Initials(), res.PersonalInfo.AgeString())
		for _, kw := range b.Keywords {
			v, _ := res.FirstFound(kw)
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// Render formats a batch as a header line plus one line per document.
func (f *TableFormatter) Render(b *batch.Result) string {
	headers, rows := Table(b)
	return f.Format(headers, rows)
}

// Format measures every column first, then pads each cell to its column
// width and appends CellSeparator. Each line ends with a newline.
func (f *TableFormatter) Format(headers []string, rows [][]string) string {
	cols := len(headers)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	clean := func(r []string) []string {
		out := make([]string, cols)
		for i := range out {
			if i < len(r) {
				out[i] = sanitizeCell(r[i])
			}
		}
		return out
	}

	all := make([][]string, 0, len(rows)+1)
	all = append(all, clean(headers))
	for _, r := range rows {
		all = append(all, clean(r))
	}

	widths := make([]int, cols)
	for _, r := range all {
		for i, cell := range r {
			if w := f.cond.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, r := range all {
		for i, cell := range r {
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-f.cond.StringWidth(cell)))
			b.WriteString(CellSeparator)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// sanitizeCell collapses whitespace so a cell never breaks a line.
func sanitizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

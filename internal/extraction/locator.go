package extraction

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/doc-extractor/internal/document"
)

// foldedLine is a case-folded copy of a line with, for every folded byte,
// the byte span of the original rune it came from.
type foldedLine struct {
	text   string
	folded string
	starts []int
	ends   []int
}

// TextLocator indexes a document's lines for repeated case-insensitive
// literal substring search. It is not safe for concurrent use.
type TextLocator struct {
	pages []document.Page
	lines [][]foldedLine
	caser cases.Caser
}

// NewTextLocator folds every line of pages once.
func NewTextLocator(pages []document.Page) *TextLocator {
	l := &TextLocator{
		pages: pages,
		lines: make([][]foldedLine, len(pages)),
		caser: cases.Fold(),
	}
	for i, p := range pages {
		l.lines[i] = make([]foldedLine, len(p.Lines))
		for j, line := range p.Lines {
			l.lines[i][j] = l.foldLine(line)
		}
	}
	return l
}

func (l *TextLocator) foldLine(line string) foldedLine {
	fl := foldedLine{text: line}
	var b strings.Builder
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		f := l.caser.String(string(r))
		b.WriteString(f)
		for k := 0; k < len(f); k++ {
			fl.starts = append(fl.starts, i)
			fl.ends = append(fl.ends, i+size)
		}
		i += size
	}
	fl.folded = b.String()
	return fl
}

// Pages returns the indexed pages.
func (l *TextLocator) Pages() []document.Page {
	return l.pages
}

// FindAll returns every non-overlapping occurrence of keyword in page, line
// and column order. Keyword is matched literally.
func (l *TextLocator) FindAll(keyword string) []KeywordOccurrence {
	keyword = norm.NFC.String(strings.TrimSpace(keyword))
	needle := l.caser.String(keyword)
	if needle == "" {
		return nil
	}

	var out []KeywordOccurrence
	for pi, page := range l.pages {
		for li, fl := range l.lines[pi] {
			offset := 0
			for {
				idx := strings.Index(fl.folded[offset:], needle)
				if idx < 0 {
					break
				}
				at := offset + idx
				end := at + len(needle)
				out = append(out, KeywordOccurrence{
					Keyword:  keyword,
					Page:     page.Number,
					Line:     li + 1,
					LineText: fl.text,
					Start:    fl.starts[at],
					End:      fl.ends[end-1],
				})
				offset = end
			}
		}
	}
	return out
}

// position addresses a line by page index and line index.
type position struct {
	page int
	line int
}

// pageIndex finds the slice index of a page number.
func (l *TextLocator) pageIndex(number int) int {
	for i, p := range l.pages {
		if p.Number == number {
			return i
		}
	}
	return -1
}

// walkFrom visits lines in reading order starting at occ's line, passing
// the byte offset to start from (occ.End on the first line, 0 after). The
// walk stops when visit returns true.
func (l *TextLocator) walkFrom(occ KeywordOccurrence, visit func(pos position, text string, from int) bool) {
	pi := l.pageIndex(occ.Page)
	if pi < 0 {
		return
	}
	li := occ.Line - 1
	from := occ.End
	for ; pi < len(l.pages); pi++ {
		lines := l.pages[pi].Lines
		for ; li < len(lines); li++ {
			if li >= 0 && visit(position{page: pi, line: li}, lines[li], from) {
				return
			}
			from = 0
		}
		li = 0
	}
}

package document

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Page is the text of a single document page as produced by a parser.
type Page struct {
	Number int      `json:"number"`
	Text   string   `json:"text"`
	Lines  []string `json:"lines"`
}

// NewPage builds a page from raw extracted text. Line endings are unified,
// the text is NFC-normalized and split into lines.
func NewPage(number int, text string) Page {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)

	return Page{
		Number: number,
		Text:   text,
		Lines:  strings.Split(text, "\n"),
	}
}

// HasText reports whether any page carries non-whitespace text.
func HasText(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

// wordsPerPage approximates a printed page for formats without page geometry.
const wordsPerPage = 500

// paginate groups paragraphs into pages of roughly wordsPerPage words.
// A paragraph is never split across pages.
func paginate(paragraphs []string) []Page {
	var pages []Page
	var current []string
	count := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		pages = append(pages, NewPage(len(pages)+1, strings.Join(current, "\n")))
		current = nil
		count = 0
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		words := len(strings.Fields(para))
		if count+words > wordsPerPage && len(current) > 0 {
			flush()
		}
		current = append(current, para)
		count += words
	}
	flush()

	return pages
}

package document

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// scannedCheckPages is how many leading pages are inspected for text.
	scannedCheckPages = 3
	// scannedMinChars is the fewest non-space characters a text PDF carries
	// across the checked pages.
	scannedMinChars = 10

	// wordGapRatio is the horizontal gap, relative to the font size, above
	// which two runs on the same line are joined with a space.
	wordGapRatio = 0.2
)

// PDFParser extracts per-page plain text from PDF files.
type PDFParser struct{}

// NewPDFParser creates a PDF parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Format() Format { return FormatPDF }

// Parse rejects encrypted and image-only PDFs, then returns one Page per
// PDF page. Pages whose text cannot be decoded are kept empty so page
// numbers stay aligned with the source.
func (p *PDFParser) Parse(ctx context.Context, path string) ([]Page, error) {
	encrypted, err := p.isEncrypted(path)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "password") || declaresEncryption(path) {
			return nil, newParseError(KindPasswordProtected, path, nil)
		}
		return nil, newParseError(KindUnreadable, path, fmt.Errorf("failed to read PDF structure: %w", err))
	}
	if encrypted {
		return nil, newParseError(KindPasswordProtected, path, nil)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, newParseError(KindUnreadable, path, fmt.Errorf("failed to open PDF: %w", err))
	}
	defer f.Close()

	total := reader.NumPage()
	if total == 0 {
		return nil, newParseError(KindNoText, path, fmt.Errorf("PDF has no pages"))
	}

	pages := make([]Page, 0, total)
	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, NewPage(pageNum, ""))
			continue
		}

		pages = append(pages, NewPage(pageNum, pageText(page)))
	}

	if looksScanned(pages) {
		return nil, newParseError(KindNoText, path, nil)
	}

	return pages, nil
}

// isEncrypted reads the PDF cross-reference structure with pdfcpu and
// reports whether the trailer carries an Encrypt dictionary.
func (p *PDFParser) isEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return false, err
	}

	return pdfCtx.Encrypt != nil, nil
}

// declaresEncryption is the fallback for PDFs pdfcpu cannot open: the raw
// bytes are searched for an Encrypt entry.
func declaresEncryption(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte("/Encrypt"))
}

// pageText rebuilds the page line by line from positioned text runs.
// GetPlainText is used when the content stream yields no runs.
func pageText(page pdf.Page) string {
	if lines := layoutLines(contentText(page)); len(lines) > 0 {
		return strings.Join(lines, "\n")
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}

// contentText returns the positioned runs of a page. Malformed content
// streams make the pdf package panic; those pages yield no runs.
func contentText(page pdf.Page) (texts []pdf.Text) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
		}
	}()
	return page.Content().Text
}

type textLine struct {
	y    float64
	runs []pdf.Text
}

// layoutLines groups runs whose baselines lie within half a font size of
// each other. Lines are ordered top to bottom and runs left to right; runs
// sharing an X keep their content stream order.
func layoutLines(texts []pdf.Text) []string {
	var lines []*textLine
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		tolerance := math.Max(math.Abs(t.FontSize)/2, 1)

		var line *textLine
		for _, l := range lines {
			if math.Abs(l.y-t.Y) <= tolerance {
				line = l
				break
			}
		}
		if line == nil {
			line = &textLine{y: t.Y}
			lines = append(lines, line)
		}
		line.runs = append(line.runs, t)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	result := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.runs, func(i, j int) bool { return l.runs[i].X < l.runs[j].X })

		var b strings.Builder
		for i, run := range l.runs {
			if i > 0 {
				prev := l.runs[i-1]
				gap := run.X - (prev.X + prev.W)
				if gap > math.Abs(run.FontSize)*wordGapRatio &&
					!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(run.S, " ") {
					b.WriteByte(' ')
				}
			}
			b.WriteString(run.S)
		}

		if text := strings.TrimRight(b.String(), " "); text != "" {
			result = append(result, text)
		}
	}
	return result
}

func looksScanned(pages []Page) bool {
	count := 0
	for i := 0; i < len(pages) && i < scannedCheckPages; i++ {
		for _, r := range pages[i].Text {
			if !unicode.IsSpace(r) {
				count++
			}
		}
	}
	return count < scannedMinChars
}

package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// oleSignature starts every OLE compound file. Encrypted Office Open XML
// packages are wrapped in one instead of a zip archive.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const docxBodyPart = "word/document.xml"

// DOCXParser extracts paragraph text from Word 2007+ documents.
type DOCXParser struct{}

// NewDOCXParser creates a DOCX parser.
func NewDOCXParser() *DOCXParser {
	return &DOCXParser{}
}

func (p *DOCXParser) Format() Format { return FormatDOCX }

// Parse reads word/document.xml. Explicit page breaks split pages; a
// document without them is grouped into pages by word count.
func (p *DOCXParser) Parse(ctx context.Context, path string) ([]Page, error) {
	if isOLE(path) {
		return nil, newParseError(KindPasswordProtected, path, nil)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, newParseError(KindUnreadable, path, fmt.Errorf("failed to open DOCX archive: %w", err))
	}
	defer zr.Close()

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return nil, newParseError(KindUnreadable, path, fmt.Errorf("missing %s", docxBodyPart))
	}

	rc, err := body.Open()
	if err != nil {
		return nil, newParseError(KindUnreadable, path, fmt.Errorf("failed to open %s: %w", docxBodyPart, err))
	}
	defer rc.Close()

	sections, err := readDOCXBody(ctx, rc)
	if err != nil {
		return nil, newParseError(KindUnreadable, path, err)
	}

	if len(sections) == 1 {
		return paginate(sections[0]), nil
	}

	pages := make([]Page, 0, len(sections))
	for _, paragraphs := range sections {
		var lines []string
		for _, para := range paragraphs {
			if strings.TrimSpace(para) != "" {
				lines = append(lines, para)
			}
		}
		pages = append(pages, NewPage(len(pages)+1, strings.Join(lines, "\n")))
	}
	return pages, nil
}

// readDOCXBody streams the document body and returns paragraphs grouped by
// explicit page breaks.
func readDOCXBody(ctx context.Context, r io.Reader) ([][]string, error) {
	dec := xml.NewDecoder(r)

	sections := [][]string{nil}
	var para strings.Builder
	inText := false

	endParagraph := func() {
		sections[len(sections)-1] = append(sections[len(sections)-1], para.String())
		para.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "cr":
				para.WriteByte(' ')
			case "br":
				if attr(t, "type") == "page" {
					endParagraph()
					sections = append(sections, nil)
				} else {
					para.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				endParagraph()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	// Drop sections left empty by trailing page breaks.
	out := sections[:0]
	for _, s := range sections {
		if hasNonBlank(s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return [][]string{nil}, nil
	}
	return out, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func hasNonBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func isOLE(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(oleSignature))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, oleSignature)
}

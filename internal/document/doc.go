package document

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/richardlehane/mscfb"
)

const (
	wordDocumentStream = "WordDocument"
	// fibIdent is wIdent at the start of a Word 97+ File Information Block.
	fibIdent = 0xA5EC
	// fibFlagsOffset locates the FIB flags word holding fEncrypted.
	fibFlagsOffset = 10
	fibEncrypted   = 0x0100
)

// DOCParser handles legacy Word 97-2003 binary documents. The compound
// file is inspected with mscfb; text comes from the antiword tool.
type DOCParser struct {
	antiword string
}

// NewDOCParser creates a DOC parser. An empty path resolves antiword on PATH.
func NewDOCParser(antiwordPath string) *DOCParser {
	if antiwordPath == "" {
		antiwordPath = "antiword"
	}
	return &DOCParser{antiword: antiwordPath}
}

func (p *DOCParser) Format() Format { return FormatDOC }

func (p *DOCParser) Parse(ctx context.Context, path string) ([]Page, error) {
	encrypted, err := inspectWordBinary(path)
	if err != nil {
		return nil, newParseError(KindUnreadable, path, err)
	}
	if encrypted {
		return nil, newParseError(KindPasswordProtected, path, nil)
	}

	bin, err := exec.LookPath(p.antiword)
	if err != nil {
		return nil, newParseError(KindUnreadable, path,
			fmt.Errorf("antiword is required for .doc files: %w", err))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-w", "0", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(strings.ToLower(msg), "encrypt") {
			return nil, newParseError(KindPasswordProtected, path, nil)
		}
		if msg != "" {
			return nil, newParseError(KindUnreadable, path, fmt.Errorf("antiword: %s", msg))
		}
		return nil, newParseError(KindUnreadable, path, fmt.Errorf("antiword: %w", err))
	}

	return splitPlainText(stdout.String()), nil
}

// splitPlainText pages tool output on form feeds when present, otherwise
// by word count.
func splitPlainText(text string) []Page {
	if strings.Contains(text, "\f") {
		var pages []Page
		for _, chunk := range strings.Split(text, "\f") {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			pages = append(pages, NewPage(len(pages)+1, strings.TrimRight(chunk, "\n")))
		}
		return pages
	}
	return paginate(strings.Split(text, "\n"))
}

// inspectWordBinary checks the compound file carries a WordDocument stream
// and reports the FIB encryption flag.
func inspectWordBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return false, fmt.Errorf("not an OLE compound document: %w", err)
	}

	for {
		entry, err := doc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false, fmt.Errorf("failed to read compound document: %w", err)
		}
		if entry.Name != wordDocumentStream {
			continue
		}

		fib := make([]byte, fibFlagsOffset+2)
		if _, err := io.ReadFull(entry, fib); err != nil {
			return false, fmt.Errorf("truncated %s stream: %w", wordDocumentStream, err)
		}
		if binary.LittleEndian.Uint16(fib[0:2]) != fibIdent {
			return false, fmt.Errorf("unrecognized Word binary format")
		}
		flags := binary.LittleEndian.Uint16(fib[fibFlagsOffset:])
		return flags&fibEncrypted != 0, nil
	}

	return false, fmt.Errorf("missing %s stream", wordDocumentStream)
}

package mcp

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/doc-extractor/internal/config"
	"github.com/a3tai/doc-extractor/internal/descriptions"
	"github.com/a3tai/doc-extractor/internal/document"
	"github.com/a3tai/doc-extractor/internal/logger"
	"github.com/a3tai/doc-extractor/internal/metrics"
)

var testTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T, opts ...Option) (*Server, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DocumentDirectory = t.TempDir()
	cfg.OutputDirectory = filepath.Join(t.TempDir(), "output")
	cfg.Keywords = []string{"HGL"}

	opts = append([]Option{WithClock(func() time.Time { return testTime })}, opts...)
	s, err := NewServer(cfg, document.NewDefaultRegistry(cfg.MaxFileSize), opts...)
	require.NoError(t, err)
	return s, cfg
}

func call(t *testing.T, h handler, args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := h(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return getTextContent(result), result.IsError
}

func getTextContent(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}

func writeDOCX(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	var body strings.Builder
	for _, l := range lines {
		body.WriteString(`<w:p><w:r><w:t>` + l + `</w:t></w:r></w:p>`)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func writePatients(t *testing.T, dir string) {
	t.Helper()
	writeDOCX(t, dir, "a_smith.docx", "First Name: John", "Last Name: Smith", "Age: 45", "HGL 140", "WBC 5.5")
	writeDOCX(t, dir, "b_lee.docx", "First Name: Anna", "Last Name: Lee", "Age: 7", "HGL: 130")
}

func TestNewServer(t *testing.T) {
	registry := document.NewDefaultRegistry(0)

	t.Run("valid", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DocumentDirectory = t.TempDir()
		s, err := NewServer(cfg, registry)
		require.NoError(t, err)
		assert.Same(t, cfg, s.config)
		assert.NotNil(t, s.mcpServer)
		assert.NotNil(t, s.engine)
		assert.Equal(t, cfg.DocumentDirectory, s.sandbox.Root())
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewServer(nil, registry)
		assert.Error(t, err)
	})

	t.Run("nil loader", func(t *testing.T) {
		_, err := NewServer(config.DefaultConfig(), nil)
		assert.Error(t, err)
	})

	t.Run("empty document directory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DocumentDirectory = ""
		_, err := NewServer(cfg, registry)
		assert.Error(t, err)
	})
}

func TestToolDescriptions(t *testing.T) {
	assert.Equal(t,
		[]string{"extract_batch", "extract_document", "list_documents", "validate_document"},
		descriptions.GetAllToolNames())
	for _, name := range descriptions.GetAllToolNames() {
		assert.NotEqual(t, "Tool description not available", descriptions.GetToolDescription(name))
	}
	assert.Equal(t, "Tool description not available", descriptions.GetToolDescription("pdf_read_file"))
}

func TestServer_HandleExtractDocument(t *testing.T) {
	s, cfg := newTestServer(t)
	writePatients(t, cfg.DocumentDirectory)

	t.Run("configured keywords", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractDocument, map[string]interface{}{"path": "a_smith.docx"})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Document: a_smith.docx")
		assert.Contains(t, text, "Processed: 2024-03-01 10:00:00")
		assert.Contains(t, text, "First Name: John")
		assert.Contains(t, text, "Age: 45")
		assert.Contains(t, text, "Initials: JS")
		assert.Contains(t, text, "Total keywords: 1 (HGL)")
		assert.Contains(t, text, "140")
	})

	t.Run("keywords argument", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractDocument, map[string]interface{}{
			"path":     filepath.Join(cfg.DocumentDirectory, "a_smith.docx"),
			"keywords": "WBC, RBC",
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Total keywords: 2 (WBC, RBC)")
		assert.Contains(t, text, "5.5")
		assert.Contains(t, text, "Not found: 1")
		assert.NotContains(t, text, "(HGL)")
	})

	t.Run("keyword too long", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractDocument, map[string]interface{}{
			"path":     filepath.Join(cfg.DocumentDirectory, "a_smith.docx"),
			"keywords": "HGL," + strings.Repeat("x", 101),
		})
		assert.True(t, isErr)
		assert.Contains(t, text, "exceeds 100 characters")
	})

	t.Run("missing path", func(t *testing.T) {
		_, isErr := call(t, s.handleExtractDocument, map[string]interface{}{})
		assert.True(t, isErr)
	})

	t.Run("outside document directory", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractDocument, map[string]interface{}{"path": "../escape.docx"})
		assert.True(t, isErr)
		assert.Contains(t, text, "outside the document directory")
	})

	t.Run("unsupported format", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractDocument, map[string]interface{}{"path": "notes.txt"})
		assert.True(t, isErr)
		assert.Contains(t, text, "unsupported")
	})

	t.Run("missing file", func(t *testing.T) {
		_, isErr := call(t, s.handleExtractDocument, map[string]interface{}{"path": "missing.docx"})
		assert.True(t, isErr)
	})
}

func TestServer_HandleExtractBatch(t *testing.T) {
	m := metrics.NewMetrics()
	var logs bytes.Buffer
	s, cfg := newTestServer(t,
		WithMetrics(m),
		WithLogger(logger.NewLogger(logger.Config{Level: "debug", Output: &logs})),
	)
	writePatients(t, cfg.DocumentDirectory)

	t.Run("directory", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractBatch, map[string]interface{}{})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Initials; Age; HGL; \n")
		assert.Contains(t, text, "JS      ; 45 ; 140; \n")
		assert.Contains(t, text, "AL      ; 7  ; 130; \n")
		assert.Contains(t, text, "Processed 2 of 2 document(s)")
		assert.Less(t, strings.Index(text, "JS"), strings.Index(text, "AL"))
	})

	t.Run("paths keep argument order", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractBatch, map[string]interface{}{
			"paths":    "b_lee.docx, a_smith.docx",
			"keywords": "WBC,HGL",
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Initials; Age; WBC; HGL; \n")
		assert.Less(t, strings.Index(text, "AL"), strings.Index(text, "JS"))
	})

	t.Run("failed document becomes warning", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.DocumentDirectory, "broken.docx"), []byte("x"), 0o600))
		text, isErr := call(t, s.handleExtractBatch, map[string]interface{}{
			"paths": "a_smith.docx,broken.docx",
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "Processed 1 of 2 document(s)")
		assert.Contains(t, text, "- Failed to process broken.docx:")
	})

	t.Run("unsupported file becomes warning", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.DocumentDirectory, "notes.txt"), []byte("HGL 1"), 0o600))
		text, isErr := call(t, s.handleExtractBatch, map[string]interface{}{
			"paths": "a_smith.docx,notes.txt,b_lee.docx",
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "JS      ; 45 ; 140; \n")
		assert.Contains(t, text, "AL      ; 7  ; 130; \n")
		assert.Contains(t, text, "Processed 2 of 3 document(s)")
		assert.Contains(t, text, "- Failed to process notes.txt:")
	})

	t.Run("write output", func(t *testing.T) {
		text, isErr := call(t, s.handleExtractBatch, map[string]interface{}{
			"paths":        "a_smith.docx",
			"write_output": "true",
		})
		require.False(t, isErr, text)
		path := filepath.Join(cfg.OutputDirectory, "batch_20240301_100000.txt")
		assert.Contains(t, text, "Output written to: "+path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "Initials; Age; HGL; \n"))

		// Same timestamp again without overwrite.
		text, isErr = call(t, s.handleExtractBatch, map[string]interface{}{
			"paths":        "a_smith.docx",
			"write_output": true,
		})
		assert.True(t, isErr)
		assert.Contains(t, text, "already exists")
	})

	t.Run("no documents", func(t *testing.T) {
		empty := filepath.Join(cfg.DocumentDirectory, "empty")
		require.NoError(t, os.Mkdir(empty, 0o755))
		_, isErr := call(t, s.handleExtractBatch, map[string]interface{}{"directory": "empty"})
		assert.True(t, isErr)
	})

	t.Run("path outside document directory", func(t *testing.T) {
		_, isErr := call(t, s.handleExtractBatch, map[string]interface{}{"paths": "/etc/passwd.docx"})
		assert.True(t, isErr)
	})

	assert.Contains(t, logs.String(), `"event":"batch_done"`)
}

func TestServer_HandleListDocuments(t *testing.T) {
	s, cfg := newTestServer(t)
	writePatients(t, cfg.DocumentDirectory)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DocumentDirectory, "readme.txt"), []byte("x"), 0o600))

	text, isErr := call(t, s.handleListDocuments, map[string]interface{}{})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Found 2 document(s)")
	assert.Contains(t, text, "1. a_smith.docx")
	assert.Contains(t, text, "2. b_lee.docx")
	assert.Contains(t, text, "Format: DOCX")
	assert.NotContains(t, text, "readme.txt")

	text, isErr = call(t, s.handleListDocuments, map[string]interface{}{"query": "LEE"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Found 1 document(s)")
	assert.Contains(t, text, "Search query: LEE")

	text, isErr = call(t, s.handleListDocuments, map[string]interface{}{"query": "nomatch"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "No documents found")
	assert.Contains(t, text, "matching query: nomatch")

	_, isErr = call(t, s.handleListDocuments, map[string]interface{}{"directory": "missing"})
	assert.True(t, isErr)

	_, isErr = call(t, s.handleListDocuments, map[string]interface{}{"directory": "/"})
	assert.True(t, isErr)
}

func TestServer_HandleValidateDocument(t *testing.T) {
	s, cfg := newTestServer(t)
	writePatients(t, cfg.DocumentDirectory)
	writeDOCX(t, cfg.DocumentDirectory, "blank.docx")

	text, isErr := call(t, s.handleValidateDocument, map[string]interface{}{"path": "a_smith.docx"})
	require.False(t, isErr)
	assert.Contains(t, text, "is valid and readable (DOCX, 1 page(s))")

	text, isErr = call(t, s.handleValidateDocument, map[string]interface{}{"path": "blank.docx"})
	require.False(t, isErr)
	assert.Contains(t, text, "Document validation failed")
	assert.Contains(t, text, "no extractable text")

	text, _ = call(t, s.handleValidateDocument, map[string]interface{}{"path": "report.xls"})
	assert.Contains(t, text, "Document validation failed for report.xls")

	_, isErr = call(t, s.handleValidateDocument, map[string]interface{}{})
	assert.True(t, isErr)
}

func TestBoolArg(t *testing.T) {
	tests := []struct {
		value interface{}
		want  bool
	}{
		{true, true},
		{false, false},
		{"true", true},
		{" 1 ", true},
		{"no", false},
		{42, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, boolArg(map[string]any{"v": tt.value}, "v"), "%v", tt.value)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, splitList(" a ,, b c ,"))
	assert.Nil(t, splitList(""))
}

func TestServer_Serve_ContextCancelled(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, strings.NewReader(""), &bytes.Buffer{})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}

package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "warn", Output: &buf})

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"service":"doc-extractor"`)
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info().Msg("nothing")
		l.LogDocument("a.pdf", 1, 0, 0, time.Millisecond)
		l.With("batch").Warn().Msg("still nothing")
	})
}

func TestLogDocument(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf}).With("engine")

	l.LogDocument("report.pdf", 3, 1, 2, 15*time.Millisecond)
	l.LogDocumentFailed("broken.pdf", errors.New("unreadable"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"warn"`)
	assert.Contains(t, lines[0], `"document":"report.pdf"`)
	assert.Contains(t, lines[0], `"component":"engine"`)
	assert.Contains(t, lines[1], `"error":"unreadable"`)
}

func TestNewRunLog(t *testing.T) {
	var console bytes.Buffer
	base := NewLogger(Config{Level: "error", Output: &console})
	dir := filepath.Join(t.TempDir(), "logs")

	run, err := NewRunLog(base, dir, "abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "extraction_abc123.log"), run.Path)

	run.Debug().Msg("detail")
	run.Error().Msg("failure")
	require.NoError(t, run.Close())

	data, err := os.ReadFile(run.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "detail")
	assert.Contains(t, string(data), "failure")
	assert.Contains(t, string(data), `"run_id":"abc123"`)

	assert.NotContains(t, console.String(), "detail")
	assert.Contains(t, console.String(), "failure")
}

func TestRunLogCloseNil(t *testing.T) {
	var r *RunLog
	assert.NoError(t, r.Close())
}

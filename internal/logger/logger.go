// Package logger provides structured logging for the extractor.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with extraction-specific helpers. A nil *Logger is
// valid and discards everything.
type Logger struct {
	zlog  zerolog.Logger
	out   io.Writer
	level zerolog.Level
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // human-readable console output
	Output     io.Writer
	WithCaller bool
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	level := ParseLevel(cfg.Level)
	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "doc-extractor").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog, out: output, level: level}
}

// Nop returns a logger that writes nothing.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), out: io.Discard, level: zerolog.Disabled}
}

// Zerolog returns the underlying zerolog logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return &l.zlog
}

func (l *Logger) Debug() *zerolog.Event { return l.Zerolog().Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.Zerolog().Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.Zerolog().Warn() }
func (l *Logger) Error() *zerolog.Event { return l.Zerolog().Error() }

// With returns a child logger carrying a component name.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{zlog: l.zlog.With().Str("component", component).Logger(), out: l.out, level: l.level}
}

// LogDocument records the outcome of one document extraction.
func (l *Logger) LogDocument(name string, matches, errs, warnings int, elapsed time.Duration) {
	event := l.Info()
	if errs > 0 {
		event = l.Warn()
	}
	event.
		Str("event", "document_done").
		Str("document", name).
		Int("matches", matches).
		Int("errors", errs).
		Int("warnings", warnings).
		Dur("duration_ms", elapsed).
		Msg("Document processed")
}

// LogDocumentFailed records a document that could not be processed.
func (l *Logger) LogDocumentFailed(name string, err error) {
	l.Error().
		Str("event", "document_failed").
		Str("document", name).
		Err(err).
		Msg("Document failed")
}

// LogBatch records a finished batch.
func (l *Logger) LogBatch(runID string, documents, succeeded int, elapsed time.Duration) {
	l.Info().
		Str("event", "batch_done").
		Str("run_id", runID).
		Int("documents", documents).
		Int("succeeded", succeeded).
		Dur("duration_ms", elapsed).
		Msg("Batch completed")
}

// RunLog is a logger that also writes to a per-run processing log file.
type RunLog struct {
	*Logger
	Path string
	file *os.File
}

// NewRunLog opens <dir>/extraction_<runID>.log and returns a logger that
// writes to both base's output and the file. The file always receives
// debug-level JSON records.
func NewRunLog(base *Logger, dir, runID string) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("extraction_%s.log", runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open processing log: %w", err)
	}

	if base == nil {
		base = Nop()
	}

	// The console keeps its own threshold; the file receives everything.
	multi := zerolog.MultiLevelWriter(
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: base.out},
			Level:  base.level,
		},
		f,
	)

	zlog := zerolog.New(multi).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("service", "doc-extractor").
		Str("run_id", runID).
		Logger()

	return &RunLog{Logger: &Logger{zlog: zlog, out: multi, level: zerolog.DebugLevel}, Path: path, file: f}, nil
}

// Close flushes and closes the log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		_ = r.file.Close()
		return err
	}
	return r.file.Close()
}

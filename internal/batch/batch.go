// Package batch runs the extraction engine over an ordered set of
// documents, isolating per-document failures.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/doc-extractor/internal/document"
	"github.com/a3tai/doc-extractor/internal/extraction"
	"github.com/a3tai/doc-extractor/internal/logger"
	"github.com/a3tai/doc-extractor/internal/metrics"
)

// WarnCancelled is recorded when a batch stops before its last document.
const WarnCancelled = "Batch cancelled"

// Result is the aggregate of one batch run. Results keep document
// selection order; Keywords defines the table column order.
type Result struct {
	RunID     string                         `json:"run_id"`
	StartedAt time.Time                      `json:"started_at"`
	Results   []*extraction.ExtractionResult `json:"results"`
	Keywords  []string                       `json:"keywords"`
	Warnings  []string                       `json:"warnings,omitempty"`
	Requested int                            `json:"requested"`
}

// DocumentCount is the number of documents that produced a result row.
func (r *Result) DocumentCount() int {
	return len(r.Results)
}

// SuccessCount counts results without recorded errors.
func (r *Result) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if !res.HasErrors() {
			n++
		}
	}
	return n
}

// TotalElapsed sums the per-document extraction time in seconds.
func (r *Result) TotalElapsed() float64 {
	total := 0.0
	for _, res := range r.Results {
		total += res.ElapsedSeconds
	}
	return total
}

// StatusSummary counts matches by status across all documents.
func (r *Result) StatusSummary() map[extraction.Status]int {
	summary := map[extraction.Status]int{}
	for _, res := range r.Results {
		for status, n := range res.StatusSummary() {
			summary[status] += n
		}
	}
	return summary
}

// ProgressFunc is called before each document with a 1-based index.
type ProgressFunc func(index, total int, name string)

// Coordinator processes documents one at a time.
type Coordinator struct {
	loader   document.Loader
	engine   *extraction.Engine
	log      *logger.Logger
	metrics  *metrics.Metrics
	progress ProgressFunc
	newRunID func() string
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) { c.log = l.With("batch") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithProgress(fn ProgressFunc) Option {
	return func(c *Coordinator) { c.progress = fn }
}

// WithClock replaces time.Now for StartedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithRunID replaces the random run ID generator.
func WithRunID(fn func() string) Option {
	return func(c *Coordinator) { c.newRunID = fn }
}

// NewCoordinator creates a coordinator that loads pages through loader and
// extracts them with engine.
func NewCoordinator(loader document.Loader, engine *extraction.Engine, opts ...Option) *Coordinator {
	if engine == nil {
		engine = extraction.NewEngine()
	}
	c := &Coordinator{
		loader:   loader,
		engine:   engine,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run extracts every document in order. It always returns a Result: a
// document that fails to load or extract becomes a warning and the batch
// continues. Cancelling ctx stops the batch between documents.
func (c *Coordinator) Run(ctx context.Context, docs []document.Document, keywords []string) *Result {
	started := c.now()
	result := &Result{
		RunID:     c.newRunID(),
		StartedAt: started,
		Results:   make([]*extraction.ExtractionResult, 0, len(docs)),
		Keywords:  extraction.NormalizeKeywords(keywords),
		Requested: len(docs),
	}

	c.metrics.RecordBatch(len(docs))
	c.log.Info().
		Str("run_id", result.RunID).
		Int("documents", len(docs)).
		Strs("keywords", result.Keywords).
		Msg("Batch started")

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: %d of %d documents not processed", WarnCancelled, len(docs)-i, len(docs)))
			c.log.Warn().Str("run_id", result.RunID).Int("remaining", len(docs)-i).Msg("Batch cancelled")
			break
		}

		if c.progress != nil {
			c.progress(i+1, len(docs), doc.Name)
		}

		res, err := c.processDocument(ctx, doc, result.Keywords)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to process %s: %v", doc.Name, err))
			c.log.LogDocumentFailed(doc.Name, err)
			c.metrics.RecordDocument(metrics.StatusFailed, 0)
			continue
		}

		result.Results = append(result.Results, res)
		c.recordDocument(res)
	}

	c.log.LogBatch(result.RunID, len(docs), result.SuccessCount(), c.now().Sub(started))
	return result
}

func (c *Coordinator) processDocument(ctx context.Context, doc document.Document, keywords []string) (res *extraction.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("extraction failed: %v", r)
		}
	}()

	if c.loader == nil {
		return nil, fmt.Errorf("no document loader configured")
	}

	pages, err := c.loader.Load(ctx, doc)
	if err != nil {
		return nil, err
	}

	return c.engine.ExtractDocument(doc, pages, keywords), nil
}

func (c *Coordinator) recordDocument(res *extraction.ExtractionResult) {
	elapsed := time.Duration(res.ElapsedSeconds * float64(time.Second))
	status := metrics.StatusSucceeded
	for _, e := range res.Errors {
		if e.Kind == extraction.ErrorNoPages {
			status = metrics.StatusNoPages
		}
	}
	c.metrics.RecordDocument(status, elapsed)

	counts := make(map[string]int, 3)
	for s, n := range res.StatusSummary() {
		counts[string(s)] = n
	}
	c.metrics.RecordMatches(counts)

	c.log.LogDocument(res.Document, len(res.Matches), len(res.Errors), len(res.Warnings), elapsed)
}

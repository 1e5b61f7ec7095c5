// Package metrics provides Prometheus metrics for extraction runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Document outcome labels.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusNoPages   = "no_pages"
)

// Metrics holds the extractor's collectors on a private registry. A nil
// *Metrics ignores all observations.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal   *prometheus.CounterVec
	MatchesTotal     *prometheus.CounterVec
	DocumentDuration prometheus.Histogram
	BatchDocuments   prometheus.Gauge
	BatchesTotal     prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.DocumentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docextract_documents_total",
			Help: "Total number of documents processed, by outcome",
		},
		[]string{"status"},
	)

	m.MatchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docextract_matches_total",
			Help: "Total number of keyword matches, by match status",
		},
		[]string{"status"},
	)

	m.DocumentDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docextract_document_duration_seconds",
			Help:    "Time spent extracting a single document",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	m.BatchDocuments = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "docextract_batch_documents",
			Help: "Number of documents in the most recent batch",
		},
	)

	m.BatchesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "docextract_batches_total",
			Help: "Total number of batches run",
		},
	)

	return m
}

// Registry exposes the private registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordDocument records one document outcome and its duration.
func (m *Metrics) RecordDocument(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(status).Inc()
	if status != StatusFailed {
		m.DocumentDuration.Observe(elapsed.Seconds())
	}
}

// RecordMatches adds match counts keyed by match status.
func (m *Metrics) RecordMatches(counts map[string]int) {
	if m == nil {
		return
	}
	for status, n := range counts {
		m.MatchesTotal.WithLabelValues(status).Add(float64(n))
	}
}

// RecordBatch records the start of a batch of n documents.
func (m *Metrics) RecordBatch(n int) {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
	m.BatchDocuments.Set(float64(n))
}

// WriteTextfile writes the registry in the Prometheus text format, suitable
// for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

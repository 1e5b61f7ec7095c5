package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordBatch(3)
	m.RecordDocument(StatusSucceeded, 20*time.Millisecond)
	m.RecordDocument(StatusSucceeded, 30*time.Millisecond)
	m.RecordDocument(StatusFailed, 0)
	m.RecordMatches(map[string]int{"found": 4, "not_found": 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues(StatusSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues(StatusFailed)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.MatchesTotal.WithLabelValues("found")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BatchDocuments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.RecordBatch(5)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BatchesTotal))
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordBatch(1)
		m.RecordDocument(StatusSucceeded, time.Second)
		m.RecordMatches(map[string]int{"found": 1})
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("ignored"))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordDocument(StatusSucceeded, time.Millisecond)

	path := filepath.Join(t.TempDir(), "extractor.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docextract_documents_total{status="succeeded"} 1`)
	assert.Contains(t, string(data), "docextract_document_duration_seconds_count 1")
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	pc := NewPrometheusCollector("test")
	registry := prometheus.NewRegistry()
	require.NoError(t, pc.Register(registry))

	pc.RecordExtraction("bank", "pdf", 5, 20*time.Millisecond)
	pc.RecordExtraction("bank", "pdf", 3, 10*time.Millisecond)
	pc.RecordExtraction("credit", "text", 4, time.Millisecond)
	pc.RecordFailure("load")
	pc.RecordOCRConfidence(87.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(pc.extractions.WithLabelValues("bank", "pdf")))
	assert.Equal(t, 8.0, testutil.ToFloat64(pc.transactions.WithLabelValues("bank")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pc.transactions.WithLabelValues("credit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pc.failures.WithLabelValues("load")))
	assert.Equal(t, 1, testutil.CollectAndCount(pc.ocrConfidence))

	assert.Error(t, pc.Register(registry), "registering twice must fail")
}

func TestNoOpCollector(t *testing.T) {
	var c Collector = NoOpCollector{}
	c.RecordExtraction("bank", "text", 1, time.Second)
	c.RecordFailure("parse")
	c.RecordOCRConfidence(50)
}

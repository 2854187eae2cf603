package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector with Prometheus metrics.
type PrometheusCollector struct {
	extractions   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	transactions  *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	ocrConfidence prometheus.Histogram
}

// NewPrometheusCollector creates the metrics under namespace. Call Register
// before serving them.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Completed statement extractions by mode and text source",
			},
			[]string{"mode", "source"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_failures_total",
				Help:      "Extractions that failed, by stage",
			},
			[]string{"stage"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_extracted_total",
				Help:      "Ledger entries extracted by mode",
			},
			[]string{"mode"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "Time from input text to structured statement",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"mode"},
		),
		ocrConfidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ocr_confidence",
				Help:      "Mean Tesseract word confidence per OCR pass",
				Buckets:   prometheus.LinearBuckets(10, 10, 9),
			},
		),
	}
}

// Register registers every metric with registry.
func (pc *PrometheusCollector) Register(registry prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		pc.extractions,
		pc.failures,
		pc.transactions,
		pc.duration,
		pc.ocrConfidence,
	} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (pc *PrometheusCollector) RecordExtraction(mode, source string, transactions int, duration time.Duration) {
	pc.extractions.WithLabelValues(mode, source).Inc()
	pc.transactions.WithLabelValues(mode).Add(float64(transactions))
	pc.duration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (pc *PrometheusCollector) RecordFailure(stage string) {
	pc.failures.WithLabelValues(stage).Inc()
}

func (pc *PrometheusCollector) RecordOCRConfidence(confidence float64) {
	pc.ocrConfidence.Observe(confidence)
}

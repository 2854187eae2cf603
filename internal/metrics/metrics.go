// Package metrics records extraction activity.
package metrics

import "time"

// Collector receives extraction events. Implementations export them to a
// metrics backend.
type Collector interface {
	// RecordExtraction records one completed extraction. source is how the
	// text was obtained: "text", "pdf" or "ocr".
	RecordExtraction(mode, source string, transactions int, duration time.Duration)
	// RecordFailure records an extraction that could not complete.
	RecordFailure(stage string)
	// RecordOCRConfidence records the mean word confidence (0-100) of one
	// OCR pass.
	RecordOCRConfidence(confidence float64)
}

// NoOpCollector discards everything. It is the default when metrics are
// disabled.
type NoOpCollector struct{}

func (NoOpCollector) RecordExtraction(mode, source string, transactions int, duration time.Duration) {
}

func (NoOpCollector) RecordFailure(stage string) {}

func (NoOpCollector) RecordOCRConfidence(confidence float64) {}

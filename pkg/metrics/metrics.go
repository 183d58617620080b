package metrics

import (
	"time"
)

// MetricsCollector defines the interface for collecting transaction processing metrics.
// Implementations can export metrics to various backends (Prometheus, in-memory, etc.).
type MetricsCollector interface {
	// Engine
	RecordProcessed(command string, errorKind string, duration time.Duration)

	// Record source
	RecordMalformed()
	RecordDuplicate(command string)
	RecordSourceState(state SourceState)

	// Hand-off queue
	RecordQueueDepth(depth int)
}

// SourceState represents the health of the record source guard.
type SourceState int

const (
	// SourceHealthy means records are being read normally.
	SourceHealthy SourceState = iota
	// SourceBroken means too many consecutive malformed records were seen.
	SourceBroken
	// SourceProbing means the guard is letting a trial record through.
	SourceProbing
)

// String returns the string representation of the source state.
func (s SourceState) String() string {
	switch s {
	case SourceHealthy:
		return "healthy"
	case SourceBroken:
		return "broken"
	case SourceProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// NoOpCollector is a no-op implementation of MetricsCollector.
// It's used as the default collector when metrics are not needed.
type NoOpCollector struct{}

// RecordProcessed does nothing.
func (NoOpCollector) RecordProcessed(command string, errorKind string, duration time.Duration) {}

// RecordMalformed does nothing.
func (NoOpCollector) RecordMalformed() {}

// RecordDuplicate does nothing.
func (NoOpCollector) RecordDuplicate(command string) {}

// RecordSourceState does nothing.
func (NoOpCollector) RecordSourceState(state SourceState) {}

// RecordQueueDepth does nothing.
func (NoOpCollector) RecordQueueDepth(depth int) {}

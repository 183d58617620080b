package metrics

import "time"

// MultiCollector forwards every observation to each of its collectors in order.
type MultiCollector []MetricsCollector

// NewMultiCollector combines collectors into one. Nil collectors are skipped.
func NewMultiCollector(collectors ...MetricsCollector) MultiCollector {
	mc := make(MultiCollector, 0, len(collectors))
	for _, c := range collectors {
		if c != nil {
			mc = append(mc, c)
		}
	}
	return mc
}

// RecordProcessed forwards to every collector.
func (mc MultiCollector) RecordProcessed(command string, errorKind string, duration time.Duration) {
	for _, c := range mc {
		c.RecordProcessed(command, errorKind, duration)
	}
}

// RecordMalformed forwards to every collector.
func (mc MultiCollector) RecordMalformed() {
	for _, c := range mc {
		c.RecordMalformed()
	}
}

// RecordDuplicate forwards to every collector.
func (mc MultiCollector) RecordDuplicate(command string) {
	for _, c := range mc {
		c.RecordDuplicate(command)
	}
}

// RecordSourceState forwards to every collector.
func (mc MultiCollector) RecordSourceState(state SourceState) {
	for _, c := range mc {
		c.RecordSourceState(state)
	}
}

// RecordQueueDepth forwards to every collector.
func (mc MultiCollector) RecordQueueDepth(depth int) {
	for _, c := range mc {
		c.RecordQueueDepth(depth)
	}
}

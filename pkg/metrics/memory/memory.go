package memory

import (
	"sync"
	"time"

	"payments-engine/pkg/metrics"
)

// MemoryCollector implements MetricsCollector for in-memory testing.
type MemoryCollector struct {
	mu sync.RWMutex

	commands map[string]*CommandMetrics

	malformed    int64
	sourceState  metrics.SourceState
	sourceBreaks int64
	queueDepth   int
	maxDepth     int
}

// CommandMetrics holds metrics for a single command type.
type CommandMetrics struct {
	Applied    int64 `json:"applied"`
	Rejected   int64 `json:"rejected"`
	Duplicates int64 `json:"duplicates"`

	// Rejections by error kind
	RejectedByKind map[string]int64 `json:"rejected_by_kind"`

	Latencies []time.Duration `json:"-"`
}

// NewMemoryCollector creates a new in-memory metrics collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		commands: make(map[string]*CommandMetrics),
	}
}

// command returns the CommandMetrics for the given command, creating it if needed.
// Callers must hold mc.mu.
func (mc *MemoryCollector) command(name string) *CommandMetrics {
	cm, exists := mc.commands[name]
	if !exists {
		cm = &CommandMetrics{RejectedByKind: make(map[string]int64)}
		mc.commands[name] = cm
	}
	return cm
}

// RecordProcessed records one record handled by the engine.
func (mc *MemoryCollector) RecordProcessed(command string, errorKind string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	cm := mc.command(command)
	if errorKind == "" || errorKind == "none" {
		cm.Applied++
	} else {
		cm.Rejected++
		cm.RejectedByKind[errorKind]++
	}
	cm.Latencies = append(cm.Latencies, duration)
}

// RecordMalformed records a row the source could not decode.
func (mc *MemoryCollector) RecordMalformed() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.malformed++
}

// RecordDuplicate records a probable transaction id reuse.
func (mc *MemoryCollector) RecordDuplicate(command string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.command(command).Duplicates++
}

// RecordSourceState records the current source guard state.
func (mc *MemoryCollector) RecordSourceState(state metrics.SourceState) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	// Count transitions to broken
	if mc.sourceState != metrics.SourceBroken && state == metrics.SourceBroken {
		mc.sourceBreaks++
	}
	mc.sourceState = state
}

// RecordQueueDepth records the current hand-off queue depth.
func (mc *MemoryCollector) RecordQueueDepth(depth int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.queueDepth = depth
	if depth > mc.maxDepth {
		mc.maxDepth = depth
	}
}

// Snapshot is a copy of the collected metrics.
type Snapshot struct {
	Commands      map[string]CommandMetrics `json:"commands"`
	Malformed     int64                     `json:"malformed"`
	SourceState   string                    `json:"source_state"`
	SourceBreaks  int64                     `json:"source_breaks"`
	QueueDepth    int                       `json:"queue_depth"`
	MaxQueueDepth int                       `json:"max_queue_depth"`
}

// Snapshot returns a copy of the current metrics state.
func (mc *MemoryCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snapshot := Snapshot{
		Commands:      make(map[string]CommandMetrics, len(mc.commands)),
		Malformed:     mc.malformed,
		SourceState:   mc.sourceState.String(),
		SourceBreaks:  mc.sourceBreaks,
		QueueDepth:    mc.queueDepth,
		MaxQueueDepth: mc.maxDepth,
	}

	// Deep copy command metrics
	for name, cm := range mc.commands {
		c := *cm
		c.RejectedByKind = make(map[string]int64, len(cm.RejectedByKind))
		for kind, n := range cm.RejectedByKind {
			c.RejectedByKind[kind] = n
		}
		c.Latencies = append([]time.Duration(nil), cm.Latencies...)
		snapshot.Commands[name] = c
	}

	return snapshot
}

// Reset clears all collected metrics.
func (mc *MemoryCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.commands = make(map[string]*CommandMetrics)
	mc.malformed = 0
	mc.sourceState = metrics.SourceHealthy
	mc.sourceBreaks = 0
	mc.queueDepth = 0
	mc.maxDepth = 0
}

// GetCommandMetrics returns a copy of the metrics for a specific command.
func (mc *MemoryCollector) GetCommandMetrics(command string) *CommandMetrics {
	snapshot := mc.Snapshot()
	if cm, exists := snapshot.Commands[command]; exists {
		return &cm
	}
	return nil
}

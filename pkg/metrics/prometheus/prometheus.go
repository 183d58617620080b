package prometheus

import (
	"time"

	"payments-engine/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector for Prometheus.
type PrometheusCollector struct {
	namespace string

	// Engine
	recordsApplied  *prometheus.CounterVec
	recordsRejected *prometheus.CounterVec
	processLatency  *prometheus.HistogramVec

	// Record source
	malformed   prometheus.Counter
	duplicates  *prometheus.CounterVec
	sourceState prometheus.Gauge
	sourceBreak prometheus.Counter

	// Hand-off queue
	queueDepth prometheus.Gauge
}

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		namespace: namespace,
		recordsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_applied_total",
				Help:      "Total number of records applied per command",
			},
			[]string{"command"},
		),
		recordsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_rejected_total",
				Help:      "Total number of records rejected per command and error kind",
			},
			[]string{"command", "error_kind"},
		),
		processLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "process_duration_seconds",
				Help:      "Engine record processing latency",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to ~16ms
			},
			[]string{"command"},
		),
		malformed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_malformed_total",
				Help:      "Total number of input rows that could not be decoded",
			},
		),
		duplicates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_tx_total",
				Help:      "Total number of records whose transaction id was probably seen before",
			},
			[]string{"command"},
		),
		sourceState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_state",
				Help:      "Current record source state (0=healthy, 1=broken, 2=probing)",
			},
		),
		sourceBreak: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_breaks_total",
				Help:      "Total number of times the record source was declared broken",
			},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Current hand-off queue depth",
			},
		),
	}
}

func (pc *PrometheusCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		pc.recordsApplied,
		pc.recordsRejected,
		pc.processLatency,
		pc.malformed,
		pc.duplicates,
		pc.sourceState,
		pc.sourceBreak,
		pc.queueDepth,
	}
}

// Register registers all metrics with the given Prometheus registerer.
func (pc *PrometheusCollector) Register(registry prometheus.Registerer) error {
	for _, collector := range pc.collectors() {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordProcessed records one record handled by the engine.
func (pc *PrometheusCollector) RecordProcessed(command string, errorKind string, duration time.Duration) {
	if errorKind == "" || errorKind == "none" {
		pc.recordsApplied.WithLabelValues(command).Inc()
	} else {
		pc.recordsRejected.WithLabelValues(command, errorKind).Inc()
	}
	pc.processLatency.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordMalformed records a row the source could not decode.
func (pc *PrometheusCollector) RecordMalformed() {
	pc.malformed.Inc()
}

// RecordDuplicate records a probable transaction id reuse.
func (pc *PrometheusCollector) RecordDuplicate(command string) {
	pc.duplicates.WithLabelValues(command).Inc()
}

// RecordSourceState records the current source guard state.
func (pc *PrometheusCollector) RecordSourceState(state metrics.SourceState) {
	pc.sourceState.Set(float64(state))
	if state == metrics.SourceBroken {
		pc.sourceBreak.Inc()
	}
}

// RecordQueueDepth records the current hand-off queue depth.
func (pc *PrometheusCollector) RecordQueueDepth(depth int) {
	pc.queueDepth.Set(float64(depth))
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"payments-engine/pkg/csvio"
	"payments-engine/pkg/engine"
	"payments-engine/pkg/logging"
	"payments-engine/pkg/metrics"

	"go.uber.org/zap"
)

// Source yields records until it returns io.EOF.
// Errors for which csvio.IsParseError holds skip a single row; any other error ends the run.
type Source interface {
	Next() (engine.Record, error)
}

// Processor applies records in the order they are given.
type Processor interface {
	Process(rec engine.Record) error
}

// Runner feeds records from a Source to a Processor through a bounded FIFO queue.
// One goroutine reads, one goroutine processes; records are applied in input order.
type Runner struct {
	source    Source
	processor Processor
	config    Config
	metrics   metrics.MetricsCollector
	logger    *logging.Logger
	filter    *txFilter
}

// Option customizes a Runner.
type Option func(*Runner)

// WithMetrics sets the metrics collector.
func WithMetrics(mc metrics.MetricsCollector) Option {
	return func(r *Runner) {
		r.metrics = mc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner reading from source and applying to processor.
func NewRunner(source Source, processor Processor, config Config, opts ...Option) *Runner {
	config = config.withDefaults()

	r := &Runner{
		source:    source,
		processor: processor,
		config:    config,
		metrics:   metrics.NoOpCollector{},
		logger:    logging.L(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("pipeline")

	if config.MaxConsecutiveMalformed > 0 {
		r.source = newGuardedSource(source, config.MaxConsecutiveMalformed, r.metrics, r.logger)
	}
	if !config.DisableDuplicateCheck {
		r.filter = newTxFilter(config.ExpectedTransactions, config.FalsePositiveRate)
	}

	return r
}

// Run reads the source to the end and applies every record.
// It returns once every enqueued record has been processed, so the processor
// may be inspected as soon as Run returns. Cancelling ctx stops reading; records
// already queued are still applied.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	queue := make(chan engine.Record, r.config.QueueSize)
	done := make(chan struct{})

	var consumed Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumed = r.consume(queue)
	}()
	go r.reportDepth(queue, done)

	r.logger.Info("processing started", zap.Int("queue_size", r.config.QueueSize))

	produced, err := r.produce(ctx, queue)

	close(queue)
	wg.Wait()
	close(done)
	r.metrics.RecordQueueDepth(0)

	result := Result{
		Read:           produced.Read,
		Applied:        consumed.Applied,
		Rejected:       consumed.Rejected,
		RejectedByKind: consumed.RejectedByKind,
		Malformed:      produced.Malformed,
		Duplicates:     produced.Duplicates,
	}

	fields := []zap.Field{
		zap.Int64("read", result.Read),
		zap.Int64("applied", result.Applied),
		zap.Int64("rejected", result.Rejected),
		zap.Int64("malformed", result.Malformed),
		zap.Int64("duplicates", result.Duplicates),
	}
	if err != nil {
		r.logger.Error("processing stopped", append(fields, zap.Error(err))...)
		return result, err
	}
	r.logger.Info("processing finished", fields...)
	return result, nil
}

// produce reads the source into queue until EOF, a fatal error or cancellation.
func (r *Runner) produce(ctx context.Context, queue chan<- engine.Record) (Result, error) {
	var result Result

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := r.source.Next()
		if err == io.EOF {
			return result, nil
		}
		if errors.Is(err, ErrSourceBroken) {
			return result, err
		}
		if err != nil {
			if csvio.IsParseError(err) {
				result.Malformed++
				r.metrics.RecordMalformed()
				r.logger.Warn("skipping malformed record", zap.Error(err))
				continue
			}
			return result, fmt.Errorf("pipeline: read source: %w", err)
		}

		if r.filter != nil && r.filter.seen(rec) {
			result.Duplicates++
			r.metrics.RecordDuplicate(rec.Command.String())
			r.logger.Warn("transaction id probably reused", recordFields(rec)...)
		}

		select {
		case queue <- rec:
			result.Read++
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
}

// consume applies queued records until the queue is closed and drained.
func (r *Runner) consume(queue <-chan engine.Record) Result {
	result := Result{RejectedByKind: make(map[string]int64)}

	for rec := range queue {
		start := time.Now()
		err := r.processor.Process(rec)
		kind := engine.ClassifyError(err)
		r.metrics.RecordProcessed(rec.Command.String(), kind, time.Since(start))

		if err != nil {
			result.Rejected++
			result.RejectedByKind[kind]++
			r.logger.Warn("record rejected",
				append(recordFields(rec), zap.String("error_kind", kind), zap.Error(err))...,
			)
			continue
		}
		result.Applied++
	}

	return result
}

// reportDepth periodically reports the queue depth until done is closed.
func (r *Runner) reportDepth(queue chan engine.Record, done <-chan struct{}) {
	ticker := time.NewTicker(r.config.DepthReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.metrics.RecordQueueDepth(len(queue))
		case <-done:
			return
		}
	}
}

func recordFields(rec engine.Record) []zap.Field {
	fields := []zap.Field{
		zap.String("command", rec.Command.String()),
		zap.Uint16("client", rec.Client),
		zap.Uint32("tx", rec.Tx),
	}
	if rec.Amount != nil {
		fields = append(fields, zap.String("amount", rec.Amount.String()))
	}
	return fields
}

package pipeline

import (
	"errors"

	"payments-engine/pkg/csvio"
	"payments-engine/pkg/engine"
	"payments-engine/pkg/logging"
	"payments-engine/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// guardedSource trips a circuit breaker when the source keeps producing malformed rows.
// Once open the source is never read again.
type guardedSource struct {
	source Source
	cb     *gobreaker.CircuitBreaker
}

func newGuardedSource(source Source, maxConsecutive uint32, mc metrics.MetricsCollector, logger *logging.Logger) *guardedSource {
	settings := gobreaker.Settings{
		Name:        "source",
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxConsecutive
		},
		// EOF and unrecoverable read errors end the run on their own
		IsSuccessful: func(err error) bool {
			return err == nil || !csvio.IsParseError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("source guard state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
				zap.Uint32("max_consecutive_malformed", maxConsecutive),
			)

			var state metrics.SourceState
			switch to {
			case gobreaker.StateClosed:
				state = metrics.SourceHealthy
			case gobreaker.StateHalfOpen:
				state = metrics.SourceProbing
			case gobreaker.StateOpen:
				state = metrics.SourceBroken
			}
			mc.RecordSourceState(state)
		},
	}

	return &guardedSource{
		source: source,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Next reads through the breaker.
func (g *guardedSource) Next() (engine.Record, error) {
	var rec engine.Record
	_, err := g.cb.Execute(func() (interface{}, error) {
		var err error
		rec, err = g.source.Next()
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return engine.Record{}, ErrSourceBroken
	}
	return rec, err
}

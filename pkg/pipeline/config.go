package pipeline

import (
	"errors"
	"time"
)

// Config configures the Runner behavior.
type Config struct {
	// QueueSize is the capacity of the hand-off queue between reader and engine (default: 1)
	QueueSize int

	// MaxConsecutiveMalformed declares the source broken after this many malformed
	// rows in a row. 0 disables the guard (default: 0)
	MaxConsecutiveMalformed uint32

	// ExpectedTransactions sizes the duplicate transaction filter (default: 1<<20)
	ExpectedTransactions uint

	// FalsePositiveRate of the duplicate transaction filter (default: 0.001)
	FalsePositiveRate float64

	// DisableDuplicateCheck turns off transaction id reuse detection
	DisableDuplicateCheck bool

	// DepthReportInterval is how often the queue depth is reported (default: 1s)
	DepthReportInterval time.Duration
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:            1,
		ExpectedTransactions: 1 << 20,
		FalsePositiveRate:    0.001,
		DepthReportInterval:  time.Second,
	}
}

// withDefaults fills zero fields with their defaults.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = defaults.QueueSize
	}
	if c.ExpectedTransactions == 0 {
		c.ExpectedTransactions = defaults.ExpectedTransactions
	}
	if c.FalsePositiveRate <= 0 || c.FalsePositiveRate >= 1 {
		c.FalsePositiveRate = defaults.FalsePositiveRate
	}
	if c.DepthReportInterval <= 0 {
		c.DepthReportInterval = defaults.DepthReportInterval
	}
	return c
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.QueueSize < 0 {
		return errors.New("pipeline: queue size must not be negative")
	}
	if c.FalsePositiveRate < 0 || c.FalsePositiveRate >= 1 {
		return errors.New("pipeline: false positive rate must be in [0, 1)")
	}
	if c.DepthReportInterval < 0 {
		return errors.New("pipeline: depth report interval must not be negative")
	}
	return nil
}

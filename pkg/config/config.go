package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"payments-engine/pkg/logging"
	"payments-engine/pkg/pipeline"
)

// ErrMissingInput is returned when no input file is given
var ErrMissingInput = errors.New("config: missing input file argument")

// Config holds the txengine command configuration.
type Config struct {
	// InputPath is the transactions CSV file to process
	InputPath string

	// Pipeline configures the reader to engine hand-off
	Pipeline pipeline.Config

	// ListenAddr serves the final snapshot over HTTP when set (e.g. ":8080")
	ListenAddr string

	// MetricsNamespace prefixes every Prometheus metric
	MetricsNamespace string

	// Log configures the logger
	Log logging.Config
}

// DefaultConfig returns the default command configuration.
func DefaultConfig() Config {
	return Config{
		Pipeline:         pipeline.DefaultConfig(),
		MetricsNamespace: "txengine",
		Log:              logging.DefaultConfig(),
	}
}

// Load builds the configuration from environment variables and command line arguments.
// Flags take precedence over the environment.
//
// Environment:
//
//	TXENGINE_QUEUE_SIZE         hand-off queue capacity
//	TXENGINE_MAX_MALFORMED      consecutive malformed rows before giving up (0 = never)
//	TXENGINE_EXPECTED_TX        expected number of transactions, sizes the duplicate filter
//	TXENGINE_LISTEN             address to serve the snapshot on
//	TXENGINE_METRICS_NAMESPACE  Prometheus namespace
//	LOG_LEVEL, LOG_FORMAT, LOG_DEV
func Load(args []string, getenv func(string) string, output io.Writer) (Config, error) {
	config := DefaultConfig()
	config.Log = logging.ConfigFromEnv(getenv)

	if err := applyEnv(&config, getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("txengine", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: txengine [flags] <transactions.csv>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	var maxMalformed, expectedTx uint
	fs.IntVar(&config.Pipeline.QueueSize, "queue-size", config.Pipeline.QueueSize, "Capacity of the reader to engine queue")
	fs.UintVar(&maxMalformed, "max-malformed", uint(config.Pipeline.MaxConsecutiveMalformed), "Consecutive malformed rows before the input is considered broken (0 = never)")
	fs.UintVar(&expectedTx, "expected-tx", config.Pipeline.ExpectedTransactions, "Expected number of transactions, sizes the duplicate id filter")
	fs.BoolVar(&config.Pipeline.DisableDuplicateCheck, "no-dedup", config.Pipeline.DisableDuplicateCheck, "Disable transaction id reuse detection")
	fs.StringVar(&config.ListenAddr, "listen", config.ListenAddr, "Serve the final accounts over HTTP on this address after processing")
	fs.StringVar(&config.MetricsNamespace, "metrics-namespace", config.MetricsNamespace, "Prometheus metrics namespace")
	fs.StringVar(&config.Log.Level, "log-level", config.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&config.Log.Format, "log-format", config.Log.Format, "Log format (json or console)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if maxMalformed > uint(^uint32(0)) {
		return Config{}, fmt.Errorf("config: max-malformed %d out of range", maxMalformed)
	}
	config.Pipeline.MaxConsecutiveMalformed = uint32(maxMalformed)
	config.Pipeline.ExpectedTransactions = expectedTx

	if fs.NArg() > 0 {
		config.InputPath = fs.Arg(0)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func applyEnv(config *Config, getenv func(string) string) error {
	if v := getenv("TXENGINE_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TXENGINE_QUEUE_SIZE: %w", err)
		}
		config.Pipeline.QueueSize = n
	}
	if v := getenv("TXENGINE_MAX_MALFORMED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("config: TXENGINE_MAX_MALFORMED: %w", err)
		}
		config.Pipeline.MaxConsecutiveMalformed = uint32(n)
	}
	if v := getenv("TXENGINE_EXPECTED_TX"); v != "" {
		n, err := strconv.ParseUint(v, 10, 0)
		if err != nil {
			return fmt.Errorf("config: TXENGINE_EXPECTED_TX: %w", err)
		}
		config.Pipeline.ExpectedTransactions = uint(n)
	}
	if v := getenv("TXENGINE_LISTEN"); v != "" {
		config.ListenAddr = v
	}
	if v := getenv("TXENGINE_METRICS_NAMESPACE"); v != "" {
		config.MetricsNamespace = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return ErrMissingInput
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.MetricsNamespace == "" {
		return errors.New("config: metrics namespace must not be empty")
	}
	return nil
}

// Command txengine applies a CSV stream of client transactions and prints the
// resulting account balances as CSV on stdout.
//
// Usage:
//
//	txengine [flags] transactions.csv > accounts.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payments-engine/pkg/api"
	"payments-engine/pkg/config"
	"payments-engine/pkg/csvio"
	"payments-engine/pkg/engine"
	"payments-engine/pkg/logging"
	"payments-engine/pkg/metrics"
	"payments-engine/pkg/metrics/memory"
	promMetrics "payments-engine/pkg/metrics/prometheus"
	"payments-engine/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
// Only setup failures and a broken input change the exit code; rejected
// transactions are logged and skipped.
func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "txengine: %v\n", err)
		return 1
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "txengine: failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	runID := uuid.NewString()
	logger = logger.WithRun(runID)
	logging.SetGlobal(logger)

	file, err := os.Open(cfg.InputPath)
	if err != nil {
		logger.Error("failed to open input", zap.String("path", cfg.InputPath), zap.Error(err))
		return 1
	}
	defer file.Close()

	registry := prometheus.NewRegistry()
	promCollector := promMetrics.NewPrometheusCollector(cfg.MetricsNamespace)
	if err := promCollector.Register(registry); err != nil {
		logger.Error("failed to register metrics", zap.Error(err))
		return 1
	}
	memCollector := memory.NewMemoryCollector()

	eng := engine.New()
	runner := pipeline.NewRunner(
		csvio.NewReader(file),
		eng,
		cfg.Pipeline,
		pipeline.WithMetrics(metrics.NewMultiCollector(memCollector, promCollector)),
		pipeline.WithLogger(logger),
	)

	result, err := runner.Run(ctx)
	if err != nil {
		return 1
	}

	accounts := eng.Snapshot()
	for id, acc := range accounts {
		if !acc.Valid() {
			logger.Error("account balance invariant violated", zap.Uint16("client", id),
				zap.String("available", acc.Available.String()),
				zap.String("held", acc.Held.String()),
				zap.String("total", acc.Total.String()),
			)
		}
	}
	if err := csvio.NewWriter(stdout).WriteAccounts(accounts); err != nil {
		logger.Error("failed to write accounts", zap.Error(err))
		return 1
	}

	if cfg.ListenAddr == "" {
		return 0
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Address = cfg.ListenAddr
	server := api.NewServer(
		api.Snapshot{RunID: runID, Accounts: accounts, Result: result, Stats: eng.Stats()},
		serverConfig,
		api.WithGatherer(registry),
		api.WithMetricsSnapshot(memCollector),
		api.WithLogger(logger),
	)
	if err := server.Start(); err != nil {
		logger.Error("failed to start API server", zap.String("addr", cfg.ListenAddr), zap.Error(err))
		return 1
	}

	<-ctx.Done()

	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", zap.Error(err))
	}
	return 0
}

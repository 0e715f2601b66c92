// ammsim runs a batch of Monte-Carlo AMM-pricing simulations and logs a
// summary of the submission's aggregate edge.
//
// Architecture:
//
//	main.go              — entry point: loads config, runs one batch, waits for SIGINT/SIGTERM if diagnostics are enabled
//	internal/config      — viper-backed configuration, env overrides
//	internal/batch       — hyperparameter sampler + parallel worker pool
//	internal/simulation   — per-simulation driver wiring AMMs, price process, arbitrageur, router
//	internal/diagnostics — optional Prometheus counters/endpoint
//
// The batch always scores a normalizer-shaped constant-product AMM
// against itself; no other submission strategy can be configured. It is a smoke test
// that exercises the full wired stack without requiring a real
// candidate strategy.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"ammarena/internal/batch"
	"ammarena/internal/config"
	"ammarena/internal/diagnostics"
	"ammarena/internal/normalizer"
	"ammarena/internal/simulation"
	"ammarena/pkg/simtypes"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("AMMARENA_CONFIG"); p != "" {
		cfgPath = p
	}
	if _, err := os.Stat(cfgPath); err != nil {
		cfgPath = ""
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Diagnostics.Enabled {
		go func() {
			if err := diagnostics.Serve(ctx, cfg.Diagnostics.Addr); err != nil {
				logger.Error("diagnostics server failed", "error", err)
			}
		}()
		logger.Info("diagnostics endpoint started", "addr", cfg.Diagnostics.Addr)
	}

	logger.Info("batch starting",
		"n_sims", cfg.Batch.NSims,
		"step_count", cfg.Simulation.StepCount,
		"seed_start", cfg.Batch.SeedStart,
		"worker_count", cfg.Batch.WorkerCount,
	)

	configs := batch.GenerateConfigs(cfg.Simulation, cfg.Hyperparams, cfg.Batch.NSims, cfg.Batch.SeedStart, cfg.Batch.SeedStride)

	result, err := batch.Run(ctx, configs, cfg.Batch.WorkerCount, func(simCfg config.SimulationConfig) (simtypes.SimResult, error) {
		return simulation.RunNative(simCfg, normalizer.Quote, normalizer.AfterTrade)
	})
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	totalEdge := decimal.NewFromFloat(result.TotalEdge)
	avgEdge := decimal.NewFromFloat(result.AvgEdge())
	snap := diagnostics.Read()

	logger.Info("batch complete",
		"n_sims", result.NSims(),
		"total_edge", totalEdge.StringFixed(4),
		"avg_edge", avgEdge.StringFixed(4),
		"sandbox_aborts", snap.SandboxAborts,
		"shape_violations", snap.ShapeViolations,
		"trades_executed", snap.TradesExecuted,
	)

	if !cfg.Diagnostics.Enabled {
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

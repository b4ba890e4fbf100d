// Package main trains several independent runs concurrently, one per seed,
// and writes a summary.csv comparing them.
//
// Usage: go run ./cmd/sweep -seeds 8 -parallel 4 -output sweeps/a
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/storage"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 4, "Number of seeds to train")
	firstSeed := flag.Int64("first-seed", 42, "Seed of the first run; later runs add 1000 each")
	generations := flag.Int("generations", 0, "Generation limit per run (0 = use config)")
	parallel := flag.Int("parallel", 0, "Maximum concurrent runs (0 = all at once)")
	outputDir := flag.String("output", "", "Output directory for per-seed logs and summary.csv")
	storeKind := flag.String("store", "", "Run history backend: memory or sqlite (empty = use config)")
	storePath := flag.String("store-path", "", "SQLite database path (empty = use config)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *outputDir == "" {
		slog.Error("-output is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// Per-generation logs from many runs drown the summary
	cfg.Telemetry.LogGenerations = false
	if *storeKind != "" {
		cfg.Storage.Backend = *storeKind
	}
	if *storePath != "" {
		cfg.Storage.Path = *storePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	if err := store.Init(ctx); err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	seedList := make([]int64, *seeds)
	for i := range seedList {
		seedList[i] = *firstSeed + int64(i*1000)
	}

	slog.Info("starting sweep", "seeds", len(seedList), "parallel", *parallel, "output", *outputDir)

	results, runErr := runSweep(ctx, cfg, sweepOptions{
		Seeds:       seedList,
		Generations: *generations,
		Parallel:    *parallel,
		OutputDir:   *outputDir,
		Store:       store,
		Logger:      logger,
	})

	if err := writeSummary(*outputDir, results); err != nil {
		slog.Error("failed to write summary", "error", err)
	}
	for _, r := range results {
		slog.Info("seed result",
			"seed", r.Seed,
			"status", r.Status,
			"generations", r.Generations,
			"best_fitness", r.BestFitness,
			"best_score", r.BestScore,
		)
	}

	if runErr != nil {
		slog.Error("sweep failed", "error", runErr)
		os.Exit(1)
	}
}

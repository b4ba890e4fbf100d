package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/telemetry"
	"github.com/pthm-cable/flappy/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and champion (overrides config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", 0, "Generation limit (0 = use config)")
	storeKind := flag.String("store", "", "Run history backend: memory or sqlite (empty = use config)")
	storePath := flag.String("store-path", "", "SQLite database path (empty = use config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *storeKind != "" {
		cfg.Storage.Backend = *storeKind
	}
	if *storePath != "" {
		cfg.Storage.Path = *storePath
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, rngSeed, *generations, *headless); err != nil {
		if errors.Is(err, game.ErrQuit) || errors.Is(err, context.Canceled) {
			slog.Info("training interrupted", "reason", err)
			return
		}
		slog.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seed int64, generations int, headless bool) error {
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	opts := game.TrainerOptions{
		Seed:        seed,
		Generations: generations,
		Store:       store,
		Output:      output,
		Logger:      slog.Default(),
	}

	if !headless {
		viewer := ui.NewViewer(cfg, "Flappy Neuroevolution")
		defer viewer.Close()
		opts.Presenter = viewer
	}

	trainer, err := game.NewTrainer(cfg, opts)
	if err != nil {
		return err
	}

	best, err := trainer.Run(ctx)
	if err != nil {
		return err
	}
	if best != nil {
		slog.Info("best genome",
			"run_id", trainer.Session().ID,
			"genome", best.ID,
			"fitness", best.Fitness,
			"output_dir", output.Dir(),
		)
	}
	return nil
}

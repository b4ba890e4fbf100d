// Package main replays a trained champion, headless or in the viewer, and
// reports its score.
//
// Usage:
//
//	go run ./cmd/replay -champion out/champion.json
//	go run ./cmd/replay -store sqlite -store-path runs.db -run <run-id>
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
	"github.com/pthm-cable/flappy/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	championPath := flag.String("champion", "", "Path to a champion.json")
	runID := flag.String("run", "", "Run ID whose champion to load from the store")
	storeKind := flag.String("store", "sqlite", "Run history backend")
	storePath := flag.String("store-path", "", "SQLite database path")
	headless := flag.Bool("headless", false, "Run without graphics")
	trials := flag.Int("trials", 1, "Number of trials to fly")
	seed := flag.Int64("seed", 0, "Pipe layout seed (0 = time-based)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var champ champion
	switch {
	case *championPath != "":
		champ, err = loadFromFile(*championPath)
	case *runID != "":
		champ, err = loadChampionFromStore(ctx, *storeKind, *storePath, *runID)
	default:
		slog.Error("either -champion or -run is required")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("failed to load champion", "error", err)
		os.Exit(1)
	}

	slog.Info("replaying champion",
		"source", champ.Source,
		"genome", champ.GenomeID,
		"generation", champ.Generation,
		"trained_fitness", champ.Fitness,
	)

	var opts []game.EvaluatorOption
	if !*headless {
		viewer := ui.NewViewer(cfg, "Flappy Champion")
		defer viewer.Close()
		opts = append(opts, game.WithPresenter(viewer))
	}

	layoutSeed := *seed
	if layoutSeed == 0 {
		layoutSeed = time.Now().UnixNano()
	}

	results, err := replay(ctx, cfg, champ, layoutSeed, *trials, opts...)
	for _, r := range results {
		slog.Info("trial", "trial", r.Trial, "score", r.Score, "ticks", r.Ticks, "fitness", r.Fitness)
	}
	if err != nil && !errors.Is(err, game.ErrQuit) && !errors.Is(err, context.Canceled) {
		slog.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func loadChampionFromStore(ctx context.Context, kind, path, runID string) (champion, error) {
	store, err := storage.NewStore(kind, path)
	if err != nil {
		return champion{}, err
	}
	if err := store.Init(ctx); err != nil {
		return champion{}, err
	}
	defer store.Close()
	return loadFromStore(ctx, store, runID)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/evolve"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/telemetry"
)

// SeedResult is one row of summary.csv.
type SeedResult struct {
	Seed        int64   `csv:"seed"`
	RunID       string  `csv:"run_id"`
	Status      string  `csv:"status"`
	Generations int     `csv:"generations"`
	BestFitness float64 `csv:"best_fitness"`
	BestScore   int     `csv:"best_score"`
	BestGenome  int     `csv:"best_genome"`
	Fingerprint string  `csv:"fingerprint"`
	ElapsedSec  float64 `csv:"elapsed_sec"`
}

// sweepOptions controls a sweep.
type sweepOptions struct {
	Seeds       []int64
	Generations int
	Parallel    int
	OutputDir   string
	Store       storage.Store
	Logger      *slog.Logger
}

// runSweep trains one independent run per seed, at most Parallel at a time.
// Runs that end extinct are reported, not treated as failures. Results are
// returned in seed order.
func runSweep(ctx context.Context, cfg *config.Config, opts sweepOptions) ([]SeedResult, error) {
	results := make([]SeedResult, len(opts.Seeds))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}

	for i, seed := range opts.Seeds {
		g.Go(func() error {
			res, err := runSeed(gctx, cfg, seed, opts)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runSeed(ctx context.Context, cfg *config.Config, seed int64, opts sweepOptions) (SeedResult, error) {
	logger := opts.Logger.With("seed", seed)
	start := time.Now()

	var output *telemetry.OutputManager
	if opts.OutputDir != "" {
		var err error
		output, err = telemetry.NewOutputManager(filepath.Join(opts.OutputDir, fmt.Sprintf("seed-%d", seed)))
		if err != nil {
			return SeedResult{Seed: seed, Status: storage.StatusFailed}, err
		}
		defer output.Close()
		if err := output.WriteConfig(cfg); err != nil {
			logger.Warn("failed to write config snapshot", "error", err)
		}
	}

	trainer, err := game.NewTrainer(cfg, game.TrainerOptions{
		Seed:        seed,
		Generations: opts.Generations,
		Store:       opts.Store,
		Output:      output,
		Logger:      logger,
	})
	if err != nil {
		return SeedResult{Seed: seed, Status: storage.StatusFailed}, err
	}

	best, err := trainer.Run(ctx)
	res := SeedResult{
		Seed:        seed,
		RunID:       trainer.Session().ID,
		Status:      storage.StatusCompleted,
		Generations: trainer.Session().Trials,
		ElapsedSec:  time.Since(start).Seconds(),
	}
	if best != nil {
		res.BestFitness = best.Fitness
		res.BestGenome = best.ID
	}
	if entry, ok := trainer.HallOfFame().Best(); ok {
		res.BestScore = entry.Score
		res.Fingerprint = entry.Fingerprint
	}

	switch {
	case err == nil:
		if best != nil && !cfg.Evolution.NoThreshold && best.Fitness >= cfg.Evolution.FitnessThreshold {
			res.Status = storage.StatusSolved
		}
		return res, nil
	case errors.Is(err, evolve.ErrExtinct):
		res.Status = storage.StatusExtinct
		return res, nil
	case errors.Is(err, context.Canceled):
		res.Status = storage.StatusCancelled
		return res, err
	default:
		res.Status = storage.StatusFailed
		return res, fmt.Errorf("seed %d: %w", seed, err)
	}
}

// writeSummary writes results to summary.csv in dir.
func writeSummary(dir string, results []SeedResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "summary.csv"))
	if err != nil {
		return fmt.Errorf("creating summary.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(results, f); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/evolve"
	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/telemetry"
)

// champion is a saved genome ready to fly.
type champion struct {
	Source     string
	GenomeID   int
	Generation int
	Fitness    float64
	Weights    neural.BrainWeights
}

// loadFromStore reads the champion of runID from the store.
func loadFromStore(ctx context.Context, store storage.Store, runID string) (champion, error) {
	c, err := store.GetChampion(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return champion{}, fmt.Errorf("run %s has no champion: %w", runID, err)
		}
		return champion{}, err
	}
	if got := storage.Fingerprint(c.Weights); got != c.Fingerprint {
		return champion{}, fmt.Errorf("champion of run %s is corrupt: fingerprint %s, stored %s", runID, got, c.Fingerprint)
	}
	return champion{
		Source:     "run " + runID,
		GenomeID:   c.GenomeID,
		Generation: c.Generation,
		Fitness:    c.Fitness,
		Weights:    c.Weights,
	}, nil
}

// loadFromFile reads a champion.json written by a training run.
func loadFromFile(path string) (champion, error) {
	entry, err := telemetry.ReadChampion(path)
	if err != nil {
		return champion{}, err
	}
	if entry.Fingerprint != "" {
		if got := storage.Fingerprint(entry.Weights); got != entry.Fingerprint {
			return champion{}, fmt.Errorf("%s is corrupt: fingerprint %s, stored %s", path, got, entry.Fingerprint)
		}
	}
	return champion{
		Source:     path,
		GenomeID:   entry.GenomeID,
		Generation: entry.Generation,
		Fitness:    entry.Fitness,
		Weights:    entry.Weights,
	}, nil
}

// TrialResult is the outcome of one replayed trial.
type TrialResult struct {
	Trial   int
	Score   int
	Ticks   int
	Fitness float64
}

// replay flies the champion alone for the given number of trials, each with
// its own pipe layout drawn from seed.
func replay(ctx context.Context, cfg *config.Config, c champion, seed int64, trials int, opts ...game.EvaluatorOption) ([]TrialResult, error) {
	brain, err := neural.FromWeights(c.Weights)
	if err != nil {
		return nil, fmt.Errorf("rebuilding network: %w", err)
	}
	if got, want := brain.Sizes(), cfg.Derived.LayerSizes; got[0] != want[0] {
		return nil, fmt.Errorf("champion takes %d inputs, game provides %d", got[0], want[0])
	}

	session := game.NewSession(seed)
	eval := game.NewEvaluator(cfg, rand.New(rand.NewSource(seed)), session, opts...)
	genome := &evolve.Genome{ID: c.GenomeID, Brain: brain}

	results := make([]TrialResult, 0, trials)
	for i := 0; i < trials; i++ {
		session.Generation = i
		if err := eval.Evaluate(ctx, []*evolve.Genome{genome}); err != nil {
			return results, err
		}
		results = append(results, TrialResult{
			Trial:   i,
			Score:   session.Last.Score,
			Ticks:   session.Last.Ticks,
			Fitness: genome.Fitness,
		})
	}
	return results, nil
}

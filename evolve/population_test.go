package evolve

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/flappy/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

// sumFitness scores a genome by the sum of its parameters.
func sumFitness(_ context.Context, genomes []*Genome) error {
	for _, g := range genomes {
		g.Fitness = 0
		for _, v := range g.Brain.Params() {
			g.AddFitness(v)
		}
	}
	return nil
}

func TestNewPopulationSeeds(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewPopulation(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.Len(t, p.Genomes(), cfg.Evolution.PopulationSize)
	require.NotEmpty(t, p.Species())

	ids := map[int]bool{}
	for _, g := range p.Genomes() {
		require.False(t, ids[g.ID], "duplicate genome id %d", g.ID)
		ids[g.ID] = true
		require.NotZero(t, g.Species, "genome %d has no species", g.ID)
		require.Equal(t, cfg.Derived.LayerSizes, g.Brain.Sizes())
	}
}

func TestNewPopulationRejectsCriterion(t *testing.T) {
	cfg := testConfig(t)
	cfg.Evolution.FitnessCriterion = "median"
	_, err := NewPopulation(cfg, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestRunReachesThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.Evolution.FitnessThreshold = 10
	p, err := NewPopulation(cfg, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	var found *Genome
	p.AddReporter(&solutionRecorder{found: &found})

	best, err := p.Run(context.Background(), sumFitness, 300)
	require.NoError(t, err)
	require.NotNil(t, best)
	require.GreaterOrEqual(t, best.Fitness, 10.0)
	require.NotNil(t, found, "FoundSolution was not reported")
	require.Less(t, p.Generation(), 300)
}

type solutionRecorder struct {
	BaseReporter
	found **Genome
}

func (r *solutionRecorder) FoundSolution(_ int, best *Genome) { *r.found = best }

func TestRunStopsAtGenerationLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Evolution.NoThreshold = true
	p, err := NewPopulation(cfg, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	calls := 0
	best, err := p.Run(context.Background(), func(ctx context.Context, genomes []*Genome) error {
		calls++
		return sumFitness(ctx, genomes)
	}, 5)
	require.NoError(t, err)
	require.Equal(t, 5, calls)
	require.Equal(t, 5, p.Generation())
	require.NotNil(t, best)

	require.Len(t, p.Genomes(), cfg.Evolution.PopulationSize)
}

func TestRunKeepsPopulationSize(t *testing.T) {
	for _, threshold := range []float64{3.0, 1.0, 0.3, 0.01} {
		cfg := testConfig(t)
		cfg.Evolution.NoThreshold = true
		cfg.Evolution.CompatThreshold = threshold
		p, err := NewPopulation(cfg, rand.New(rand.NewSource(4)))
		require.NoError(t, err)

		var sizes []int
		_, err = p.Run(context.Background(), func(ctx context.Context, genomes []*Genome) error {
			sizes = append(sizes, len(genomes))
			return sumFitness(ctx, genomes)
		}, 6)
		require.NoError(t, err)

		for gen, n := range sizes {
			require.Equal(t, cfg.Evolution.PopulationSize, n,
				"threshold %v generation %d", threshold, gen)
		}
		require.Len(t, p.Genomes(), cfg.Evolution.PopulationSize)
	}
}

func TestRunBestIsSnapshot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Evolution.NoThreshold = true
	p, err := NewPopulation(cfg, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	best, err := p.Run(context.Background(), sumFitness, 3)
	require.NoError(t, err)

	before := best.Brain.Params()
	_, err = p.Run(context.Background(), func(_ context.Context, genomes []*Genome) error {
		for _, g := range genomes {
			g.Fitness = -1000
			g.Brain.EachParam(func(_ bool, v *float64) { *v = 0 })
		}
		return nil
	}, 1)
	require.NoError(t, err)
	require.Equal(t, before, best.Brain.Params())
}

func TestRunPropagatesEvalError(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewPopulation(cfg, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	errStop := errors.New("stop")
	_, err = p.Run(context.Background(), func(context.Context, []*Genome) error { return errStop }, 10)
	require.ErrorIs(t, err, errStop)
	require.Equal(t, 0, p.Generation())
}

func TestRunHonoursCancelledContext(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewPopulation(cfg, rand.New(rand.NewSource(6)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err = p.Run(ctx, func(context.Context, []*Genome) error { called = true; return nil }, 10)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestRunExtinction(t *testing.T) {
	flat := func(_ context.Context, genomes []*Genome) error {
		for _, g := range genomes {
			g.Fitness = 1
		}
		return nil
	}

	cfg := testConfig(t)
	cfg.Evolution.NoThreshold = true
	cfg.Evolution.MaxStagnation = 1
	cfg.Evolution.SpeciesElitism = 0
	cfg.Evolution.CompatThreshold = 1e9 // one species

	p, err := NewPopulation(cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	_, err = p.Run(context.Background(), flat, 10)
	require.ErrorIs(t, err, ErrExtinct)

	cfg.Evolution.ResetOnExtinction = true
	p, err = NewPopulation(cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	_, err = p.Run(context.Background(), flat, 10)
	require.NoError(t, err)
	require.Len(t, p.Genomes(), cfg.Evolution.PopulationSize)
}

func TestRunWithoutLimitRequiresThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.Evolution.NoThreshold = true
	p, err := NewPopulation(cfg, rand.New(rand.NewSource(8)))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), sumFitness, 0)
	require.Error(t, err)
}

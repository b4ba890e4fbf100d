package evolve

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/neural"
)

// ErrExtinct is returned by Run when every species has been removed and the
// population is not configured to reset.
var ErrExtinct = errors.New("evolve: complete extinction")

// EvalFunc assigns a fitness to every genome of one generation.
type EvalFunc func(ctx context.Context, genomes []*Genome) error

// Population runs generations of evaluation, speciation and reproduction.
type Population struct {
	cfg       config.EvolutionConfig
	neural    config.NeuralConfig
	sizes     []int
	mutation  neural.MutationParams
	criterion func([]float64) float64

	rng        *rand.Rand
	genomes    []*Genome
	species    *SpeciesSet
	reporters  reporterSet
	generation int
	nextID     int
	best       *Genome
}

// NewPopulation seeds a population of randomly initialized genomes.
func NewPopulation(cfg *config.Config, rng *rand.Rand) (*Population, error) {
	criterion, err := fitnessCriterion(cfg.Evolution.FitnessCriterion)
	if err != nil {
		return nil, err
	}

	p := &Population{
		cfg:       cfg.Evolution,
		neural:    cfg.Neural,
		sizes:     cfg.Derived.LayerSizes,
		criterion: criterion,
		rng:       rng,
		species:   NewSpeciesSet(cfg.Evolution.CompatThreshold),
		nextID:    1,
		mutation: neural.MutationParams{
			WeightRate:        cfg.Evolution.WeightMutateRate,
			WeightPower:       cfg.Evolution.WeightMutatePower,
			WeightReplaceRate: cfg.Evolution.WeightReplaceRate,
			BiasRate:          cfg.Evolution.BiasMutateRate,
			BiasPower:         cfg.Evolution.BiasMutatePower,
			BiasReplaceRate:   cfg.Evolution.BiasReplaceRate,
			MaxValue:          cfg.Evolution.WeightMaxValue,
			InitStdev:         cfg.Neural.InitStdev,
		},
	}

	genomes, err := p.seed()
	if err != nil {
		return nil, err
	}
	p.genomes = genomes
	p.species.Speciate(p.genomes, p.generation)
	return p, nil
}

func fitnessCriterion(name string) (func([]float64) float64, error) {
	switch name {
	case "max":
		return floats.Max, nil
	case "min":
		return floats.Min, nil
	case "mean":
		return func(x []float64) float64 { return stat.Mean(x, nil) }, nil
	}
	return nil, fmt.Errorf("unknown fitness criterion %q", name)
}

func (p *Population) seed() ([]*Genome, error) {
	genomes := make([]*Genome, 0, p.cfg.PopulationSize)
	for i := 0; i < p.cfg.PopulationSize; i++ {
		brain, err := neural.NewRandom(p.rng, p.sizes, p.neural.HiddenActivation, p.neural.OutputActivation, p.neural.InitStdev)
		if err != nil {
			return nil, fmt.Errorf("creating genome: %w", err)
		}
		genomes = append(genomes, &Genome{ID: p.nextGenomeID(), Brain: brain})
	}
	return genomes, nil
}

func (p *Population) nextGenomeID() int {
	id := p.nextID
	p.nextID++
	return id
}

// AddReporter registers r for progress callbacks.
func (p *Population) AddReporter(r Reporter) {
	p.reporters = append(p.reporters, r)
}

// Genomes returns the current generation's genomes.
func (p *Population) Genomes() []*Genome { return p.genomes }

// Species returns the current species.
func (p *Population) Species() []*Species { return p.species.All() }

// Generation returns the zero-based index of the current generation.
func (p *Population) Generation() int { return p.generation }

// Best returns a copy of the fittest genome evaluated so far, or nil.
func (p *Population) Best() *Genome { return p.best }

// Run evaluates up to n generations with fn (n <= 0 runs until the fitness
// threshold is met). It returns the best genome seen. Errors from fn are
// returned as-is, unwrapped, so sentinels survive.
func (p *Population) Run(ctx context.Context, fn EvalFunc, n int) (*Genome, error) {
	if p.cfg.NoThreshold && n <= 0 {
		return nil, errors.New("evolve: cannot run without a generation limit when fitness termination is disabled")
	}

	for k := 0; n <= 0 || k < n; k++ {
		if err := ctx.Err(); err != nil {
			return p.best, err
		}

		p.reporters.StartGeneration(p.generation)

		if err := fn(ctx, p.genomes); err != nil {
			return p.best, err
		}

		fitnesses := make([]float64, len(p.genomes))
		var genBest *Genome
		for i, g := range p.genomes {
			fitnesses[i] = g.Fitness
			if genBest == nil || g.Fitness > genBest.Fitness {
				genBest = g
			}
		}
		if genBest != nil && (p.best == nil || genBest.Fitness > p.best.Fitness) {
			p.best = genBest.snapshot()
		}
		p.reporters.PostEvaluate(p.generation, p.genomes, p.species.All(), genBest)

		if !p.cfg.NoThreshold && len(fitnesses) > 0 && p.criterion(fitnesses) >= p.cfg.FitnessThreshold {
			p.reporters.FoundSolution(p.generation, genBest)
			return p.best, nil
		}

		next := p.reproduce()
		if next == nil {
			p.reporters.CompleteExtinction()
			if !p.cfg.ResetOnExtinction {
				return p.best, ErrExtinct
			}
			var err error
			if next, err = p.seed(); err != nil {
				return p.best, err
			}
		}
		p.genomes = next
		p.species.Speciate(p.genomes, p.generation)

		p.reporters.EndGeneration(p.generation, p.genomes, p.species.All())
		p.generation++
	}

	if p.cfg.NoThreshold && p.best != nil {
		p.reporters.FoundSolution(p.generation, p.best)
	}
	return p.best, nil
}

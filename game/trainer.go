package game

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/evolve"
	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/telemetry"
)

// TrainerOptions configures a training run. Zero values select headless
// play, no persistence and the config's generation limit.
type TrainerOptions struct {
	Seed        int64
	Generations int // Overrides evolution.generations when > 0
	Presenter   Presenter
	Store       storage.Store // Must already be initialized
	Output      *telemetry.OutputManager
	Logger      *slog.Logger
	EvalOptions []EvaluatorOption
}

// Trainer runs the evolutionary algorithm against the game and reports each
// generation to the log, the output directory and the run store.
type Trainer struct {
	evolve.BaseReporter

	cfg     *config.Config
	opts    TrainerOptions
	logger  *slog.Logger
	session *Session
	pop     *evolve.Population
	eval    *Evaluator
	perf    *telemetry.PerfCollector
	hof     *telemetry.HallOfFame

	solved   bool
	haveBest bool
}

// NewTrainer seeds the population and wires the evaluator.
func NewTrainer(cfg *config.Config, opts TrainerOptions) (*Trainer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	pop, err := evolve.NewPopulation(cfg, rng)
	if err != nil {
		return nil, err
	}

	t := &Trainer{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		session: NewSession(opts.Seed),
		pop:     pop,
		perf:    telemetry.NewPerfCollector(120),
		hof:     telemetry.NewHallOfFame(10),
	}

	evalOpts := []EvaluatorOption{WithPerfCollector(t.perf)}
	if opts.Presenter != nil {
		evalOpts = append(evalOpts, WithPresenter(opts.Presenter))
	}
	evalOpts = append(evalOpts, opts.EvalOptions...)
	t.eval = NewEvaluator(cfg, rng, t.session, evalOpts...)

	pop.AddReporter(t)
	if cfg.Telemetry.LogGenerations {
		pop.AddReporter(evolve.NewLogReporter(logger))
	}
	return t, nil
}

// Session returns the run's session.
func (t *Trainer) Session() *Session { return t.session }

// Population returns the evolving population.
func (t *Trainer) Population() *evolve.Population { return t.pop }

// HallOfFame returns the best genomes seen so far.
func (t *Trainer) HallOfFame() *telemetry.HallOfFame { return t.hof }

// Run trains until the generation limit or the fitness threshold and returns
// the best genome. On ErrQuit the champion is not persisted.
func (t *Trainer) Run(ctx context.Context) (*evolve.Genome, error) {
	generations := t.cfg.Evolution.Generations
	if t.opts.Generations > 0 {
		generations = t.opts.Generations
	}

	run := storage.Run{
		ID:        t.session.ID,
		Seed:      t.session.Seed,
		Status:    storage.StatusRunning,
		StartedAt: t.session.StartedAt,
	}
	t.saveRun(ctx, run)

	t.logger.Info("training started",
		"run_id", run.ID,
		"seed", run.Seed,
		"population", t.cfg.Evolution.PopulationSize,
		"generations", generations,
	)

	best, err := t.pop.Run(ctx, t.eval.Evaluate, generations)

	run.Status = runStatus(err, t.solved)
	run.FinishedAt = time.Now()
	run.Generations = t.session.Trials
	if best != nil {
		run.BestFitness = best.Fitness
	}

	if err == nil {
		t.saveChampion(ctx)
	}
	// Record the outcome even when ctx was cancelled
	t.saveRun(context.WithoutCancel(ctx), run)

	if err != nil {
		t.logger.Warn("training stopped", "run_id", run.ID, "status", run.Status, "error", err)
		return best, err
	}
	t.logger.Info("training finished",
		"run_id", run.ID,
		"status", run.Status,
		"generations", run.Generations,
		"best_fitness", run.BestFitness,
		"elapsed", run.FinishedAt.Sub(run.StartedAt),
	)
	return best, nil
}

func runStatus(err error, solved bool) string {
	switch {
	case err == nil && solved:
		return storage.StatusSolved
	case err == nil:
		return storage.StatusCompleted
	case errors.Is(err, ErrQuit):
		return storage.StatusQuit
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return storage.StatusCancelled
	case errors.Is(err, evolve.ErrExtinct):
		return storage.StatusExtinct
	default:
		return storage.StatusFailed
	}
}

// StartGeneration implements evolve.Reporter.
func (t *Trainer) StartGeneration(generation int) {
	t.session.Generation = generation
}

// PostEvaluate implements evolve.Reporter.
func (t *Trainer) PostEvaluate(generation int, genomes []*evolve.Genome, species []*evolve.Species, best *evolve.Genome) {
	fitnesses := make([]float64, len(genomes))
	for i, g := range genomes {
		fitnesses[i] = g.Fitness
	}

	trial := t.session.Last
	stats := telemetry.GenerationStats{
		RunID:       t.session.ID,
		Generation:  generation,
		Population:  len(genomes),
		Species:     len(species),
		Score:       trial.Score,
		Ticks:       trial.Ticks,
		Collisions:  trial.Collisions,
		Crashes:     trial.Crashes,
		Survivors:   trial.Survivors,
		ElapsedMS:   trial.Elapsed.Milliseconds(),
		TicksPerSec: trial.TicksPerSec,
	}
	telemetry.ComputeFitnessStats(fitnesses).Apply(&stats)

	if best != nil {
		stats.BestGenome = best.ID
		if !t.haveBest || best.Fitness > t.session.BestFitness {
			t.session.BestFitness = best.Fitness
			t.haveBest = true
		}

		bw := best.Brain.MarshalWeights()
		t.hof.Consider(telemetry.HallEntry{
			GenomeID:    best.ID,
			Generation:  generation,
			Fitness:     best.Fitness,
			Score:       trial.Score,
			Fingerprint: storage.Fingerprint(bw),
			Weights:     bw,
		})
	}

	if t.cfg.Telemetry.LogGenerations {
		t.logger.Info("generation", "stats", stats, "perf", t.perf.Stats())
	}

	if err := t.opts.Output.WriteGeneration(stats); err != nil {
		t.logger.Warn("failed to write generation", "generation", generation, "error", err)
	}
	if t.opts.Store != nil {
		if err := t.opts.Store.SaveGeneration(context.Background(), stats); err != nil {
			t.logger.Warn("failed to save generation", "generation", generation, "error", err)
		}
	}
}

// FoundSolution implements evolve.Reporter.
func (t *Trainer) FoundSolution(int, *evolve.Genome) {
	t.solved = !t.cfg.Evolution.NoThreshold
}

// CompleteExtinction implements evolve.Reporter.
func (t *Trainer) CompleteExtinction() {
	t.logger.Warn("all species extinct",
		"generation", t.session.Generation,
		"reset", t.cfg.Evolution.ResetOnExtinction,
	)
}

func (t *Trainer) saveChampion(ctx context.Context) {
	entry, ok := t.hof.Best()
	if !ok {
		return
	}

	if err := t.opts.Output.WriteChampion(entry); err != nil {
		t.logger.Warn("failed to write champion", "error", err)
	}
	if err := t.opts.Output.WriteHallOfFame(t.hof); err != nil {
		t.logger.Warn("failed to write hall of fame", "error", err)
	}

	if t.opts.Store == nil {
		return
	}
	champion := storage.Champion{
		RunID:       t.session.ID,
		GenomeID:    entry.GenomeID,
		Generation:  entry.Generation,
		Fitness:     entry.Fitness,
		Score:       entry.Score,
		Fingerprint: entry.Fingerprint,
		Weights:     entry.Weights,
	}
	if err := t.opts.Store.SaveChampion(ctx, champion); err != nil {
		t.logger.Warn("failed to save champion", "error", err)
	}
}

func (t *Trainer) saveRun(ctx context.Context, run storage.Run) {
	if t.opts.Store == nil {
		return
	}
	if err := t.opts.Store.SaveRun(ctx, run); err != nil {
		t.logger.Warn("failed to save run", "run_id", run.ID, "error", err)
	}
}

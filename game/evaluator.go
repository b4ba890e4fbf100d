package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/evolve"
	"github.com/pthm-cable/flappy/systems"
	"github.com/pthm-cable/flappy/telemetry"
)

// Evaluator scores a generation by flying all of its genomes together in a
// fresh World. Its Evaluate method is an evolve.EvalFunc.
type Evaluator struct {
	cfg         *config.Config
	rng         *rand.Rand
	session     *Session
	silhouettes systems.Silhouettes
	presenter   Presenter
	perf        *telemetry.PerfCollector

	frame Frame
}

// EvaluatorOption customizes an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithPresenter shows every tick through p.
func WithPresenter(p Presenter) EvaluatorOption {
	return func(e *Evaluator) { e.presenter = p }
}

// WithMasks replaces the default collision silhouettes.
func WithMasks(s systems.Silhouettes) EvaluatorOption {
	return func(e *Evaluator) { e.silhouettes = s }
}

// WithPerfCollector times each trial's ticks.
func WithPerfCollector(p *telemetry.PerfCollector) EvaluatorOption {
	return func(e *Evaluator) { e.perf = p }
}

// NewEvaluator creates an evaluator recording trial outcomes on session.
func NewEvaluator(cfg *config.Config, rng *rand.Rand, session *Session, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		cfg:         cfg,
		rng:         rng,
		session:     session,
		silhouettes: systems.DefaultSilhouettes(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate resets every genome's fitness and runs one trial. Fitness is
// shaped in place while the trial runs. It returns ctx.Err() on cancellation
// and ErrQuit if the presenter asks to stop; fitness is then partial.
func (e *Evaluator) Evaluate(ctx context.Context, genomes []*evolve.Genome) error {
	if len(genomes) == 0 {
		return nil
	}

	start := time.Now()
	e.perf.Reset()

	w := NewWorld(e.cfg, e.rng, WithSilhouettes(e.silhouettes), WithPerf(e.perf))
	for _, g := range genomes {
		g.Fitness = 0
		w.AddAgent(components.Pilot{
			ID:         g.ID,
			Species:    g.Species,
			Controller: g.Network(),
			Score:      g,
		})
	}

	for !w.Over() {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.perf.StartTick()
		w.Step()

		if e.presenter != nil {
			e.perf.StartPhase(telemetry.PhasePresent)
			if e.present(w, len(genomes)) {
				e.perf.EndTick()
				return ErrQuit
			}
		}
		e.perf.EndTick()
	}

	elapsed := time.Since(start)
	summary := TrialSummary{
		Ticks:      w.Tick(),
		Score:      w.Score(),
		Collisions: w.Collisions(),
		Crashes:    w.Crashes(),
		Survivors:  w.Agents(),
		Elapsed:    elapsed,
	}
	if elapsed > 0 {
		summary.TicksPerSec = float64(summary.Ticks) / elapsed.Seconds()
	}
	if e.session != nil {
		e.session.record(summary)
	}
	return nil
}

func (e *Evaluator) present(w *World, population int) bool {
	w.Frame(&e.frame)
	e.frame.Population = population
	if e.session != nil {
		e.frame.Generation = e.session.Generation
		e.frame.BestFitness = e.session.BestFitness
	}
	return e.presenter.Present(&e.frame)
}

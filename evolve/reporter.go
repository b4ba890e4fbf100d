package evolve

import (
	"log/slog"
	"time"
)

// Reporter receives progress callbacks from Population.Run.
type Reporter interface {
	StartGeneration(generation int)
	PostEvaluate(generation int, genomes []*Genome, species []*Species, best *Genome)
	EndGeneration(generation int, genomes []*Genome, species []*Species)
	FoundSolution(generation int, best *Genome)
	SpeciesStagnant(s *Species)
	CompleteExtinction()
}

// BaseReporter implements Reporter with no-ops; embed it to override only
// the callbacks you need.
type BaseReporter struct{}

func (BaseReporter) StartGeneration(int) {}
func (BaseReporter) PostEvaluate(int, []*Genome, []*Species, *Genome) {}
func (BaseReporter) EndGeneration(int, []*Genome, []*Species) {}
func (BaseReporter) FoundSolution(int, *Genome) {}
func (BaseReporter) SpeciesStagnant(*Species) {}
func (BaseReporter) CompleteExtinction() {}

type reporterSet []Reporter

func (rs reporterSet) StartGeneration(gen int) {
	for _, r := range rs {
		r.StartGeneration(gen)
	}
}

func (rs reporterSet) PostEvaluate(gen int, genomes []*Genome, species []*Species, best *Genome) {
	for _, r := range rs {
		r.PostEvaluate(gen, genomes, species, best)
	}
}

func (rs reporterSet) EndGeneration(gen int, genomes []*Genome, species []*Species) {
	for _, r := range rs {
		r.EndGeneration(gen, genomes, species)
	}
}

func (rs reporterSet) FoundSolution(gen int, best *Genome) {
	for _, r := range rs {
		r.FoundSolution(gen, best)
	}
}

func (rs reporterSet) SpeciesStagnant(s *Species) {
	for _, r := range rs {
		r.SpeciesStagnant(s)
	}
}

func (rs reporterSet) CompleteExtinction() {
	for _, r := range rs {
		r.CompleteExtinction()
	}
}

// LogReporter logs species composition and lifecycle events.
type LogReporter struct {
	BaseReporter
	Logger *slog.Logger

	start time.Time
}

// NewLogReporter creates a reporter logging to logger, or slog.Default() if nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) StartGeneration(gen int) {
	r.start = time.Now()
	r.Logger.Debug("generation_start", "generation", gen)
}

func (r *LogReporter) EndGeneration(gen int, genomes []*Genome, species []*Species) {
	for _, s := range species {
		r.Logger.Debug("species",
			"generation", gen,
			"id", s.ID,
			"age", gen-s.Created,
			"size", s.Size(),
			"fitness", s.Fitness,
			"adjusted_fitness", s.AdjustedFitness,
			"stagnation", s.Stagnation(gen),
		)
	}
	r.Logger.Info("generation_end",
		"generation", gen,
		"population", len(genomes),
		"species", len(species),
		"elapsed", time.Since(r.start).Round(time.Millisecond).String(),
	)
}

func (r *LogReporter) FoundSolution(gen int, best *Genome) {
	r.Logger.Info("solution",
		"generation", gen,
		"genome", best.ID,
		"fitness", best.Fitness,
		"params", best.Brain.NumParams(),
	)
}

func (r *LogReporter) SpeciesStagnant(s *Species) {
	r.Logger.Info("species_stagnant", "id", s.ID, "size", s.Size(), "best_fitness", s.BestFitness)
}

func (r *LogReporter) CompleteExtinction() {
	r.Logger.Warn("complete_extinction")
}

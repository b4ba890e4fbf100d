// Package telemetry collects per-generation statistics and writes experiment
// output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes one evaluated generation.
type GenerationStats struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`

	// Fitness distribution over the whole population
	BestFitness  float64 `csv:"best_fitness"`
	MeanFitness  float64 `csv:"mean_fitness"`
	StdevFitness float64 `csv:"stdev_fitness"`
	MinFitness   float64 `csv:"min_fitness"`
	P50Fitness   float64 `csv:"p50_fitness"`
	P90Fitness   float64 `csv:"p90_fitness"`

	Population int `csv:"population"`
	Species    int `csv:"species"`
	BestGenome int `csv:"best_genome"`

	// Trial outcome
	Score      int `csv:"score"`
	Ticks      int `csv:"ticks"`
	Collisions int `csv:"collisions"`
	Crashes    int `csv:"crashes"` // ground or ceiling
	Survivors  int `csv:"survivors"`

	ElapsedMS   int64   `csv:"elapsed_ms"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
}

// FitnessStats holds the distribution of a population's fitness values.
type FitnessStats struct {
	Mean, Stdev, Min, Max, P50, P90 float64
}

// ComputeFitnessStats calculates the population mean, population standard
// deviation, extremes and empirical percentiles. Empty input yields zeros.
func ComputeFitnessStats(values []float64) FitnessStats {
	if len(values) == 0 {
		return FitnessStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return FitnessStats{
		Mean:  mean,
		Stdev: std,
		Min:   floats.Min(sorted),
		Max:   floats.Max(sorted),
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:   stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
}

// Apply copies the distribution into the stats record.
func (f FitnessStats) Apply(s *GenerationStats) {
	s.BestFitness = f.Max
	s.MeanFitness = f.Mean
	s.StdevFitness = f.Stdev
	s.MinFitness = f.Min
	s.P50Fitness = f.P50
	s.P90Fitness = f.P90
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Float64("best", s.BestFitness),
		slog.Float64("mean", s.MeanFitness),
		slog.Float64("stdev", s.StdevFitness),
		slog.Float64("min", s.MinFitness),
		slog.Float64("p50", s.P50Fitness),
		slog.Float64("p90", s.P90Fitness),
		slog.Int("population", s.Population),
		slog.Int("species", s.Species),
		slog.Int("best_genome", s.BestGenome),
		slog.Int("score", s.Score),
		slog.Int("ticks", s.Ticks),
		slog.Int("collisions", s.Collisions),
		slog.Int("crashes", s.Crashes),
		slog.Int("survivors", s.Survivors),
		slog.Int64("elapsed_ms", s.ElapsedMS),
		slog.Float64("ticks_per_sec", s.TicksPerSec),
	)
}

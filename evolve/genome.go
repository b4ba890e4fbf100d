// Package evolve is a small speciated neuroevolution algorithm for
// fixed-topology controller networks.
package evolve

import (
	"github.com/pthm-cable/flappy/neural"
)

// Genome is one member of the population. Fitness is written by the
// evaluation function and read back by selection.
type Genome struct {
	ID      int
	Fitness float64
	Species int
	Parents [2]int // zero for seeded genomes; Parents[1] is zero for asexual offspring

	Brain *neural.FFNN
}

// AddFitness adjusts the genome's fitness by delta.
func (g *Genome) AddFitness(delta float64) {
	g.Fitness += delta
}

// Network builds a controller from the genome. Each call returns an
// independent network so callers can activate it without sharing buffers.
func (g *Genome) Network() *neural.FFNN {
	return g.Brain.Clone()
}

// snapshot returns a deep copy that later generations cannot modify.
func (g *Genome) snapshot() *Genome {
	cp := *g
	cp.Brain = g.Brain.Clone()
	return &cp
}

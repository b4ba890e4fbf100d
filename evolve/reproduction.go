package evolve

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flappy/neural"
)

// adjustFitness sets each species' AdjustedFitness to its mean member
// fitness normalized over the population's fitness range.
func adjustFitness(species []*Species) {
	var all []float64
	for _, s := range species {
		for _, g := range s.Members {
			all = append(all, g.Fitness)
		}
	}
	if len(all) == 0 {
		return
	}
	lo, hi := floats.Min(all), floats.Max(all)
	span := max(1.0, hi-lo)

	for _, s := range species {
		fit := make([]float64, len(s.Members))
		for i, g := range s.Members {
			fit[i] = g.Fitness
		}
		s.AdjustedFitness = (stat.Mean(fit, nil) - lo) / span
	}
}

// spawnAmounts splits total offspring across species in proportion to
// adjusted fitness using largest remainders. Every species gets at least
// minSize, lowered to total/len(species) when there are too many species to
// honour it. The amounts always sum to total.
func spawnAmounts(species []*Species, total, minSize int) []int {
	out := make([]int, len(species))
	if len(species) == 0 {
		return out
	}
	minSize = min(minSize, total/len(species))

	var sum float64
	for _, s := range species {
		sum += s.AdjustedFitness
	}

	type alloc struct {
		idx       int
		remainder float64
	}
	allocs := make([]alloc, len(species))
	assigned := 0
	for i, s := range species {
		share := float64(total) / float64(len(species))
		if sum > 0 {
			share = s.AdjustedFitness / sum * float64(total)
		}
		base := int(math.Floor(share))
		out[i] = base
		allocs[i] = alloc{idx: i, remainder: share - float64(base)}
		assigned += base
	}

	sort.SliceStable(allocs, func(i, j int) bool { return allocs[i].remainder > allocs[j].remainder })
	for i := 0; i < total-assigned; i++ {
		out[allocs[i%len(allocs)].idx]++
	}
	excess := 0
	for i := range out {
		if out[i] < minSize {
			excess += minSize - out[i]
			out[i] = minSize
		}
	}
	// Give back what the floor added, taking from the largest shares
	for ; excess > 0; excess-- {
		largest := 0
		for i := range out {
			if out[i] > out[largest] {
				largest = i
			}
		}
		out[largest]--
	}
	return out
}

// tournament picks the fittest of size random draws from ranked.
func tournament(rng *rand.Rand, ranked []*Genome, size int) *Genome {
	size = max(1, min(size, len(ranked)))
	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < size; i++ {
		if c := ranked[rng.Intn(len(ranked))]; c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}

// reproduce builds the next generation. It returns nil when every species
// has been removed for stagnation.
func (p *Population) reproduce() []*Genome {
	p.species.updateFitness(p.generation)
	for _, s := range p.species.removeStagnant(p.generation, p.cfg.MaxStagnation, p.cfg.SpeciesElitism) {
		p.reporters.SpeciesStagnant(s)
	}

	remaining := p.species.All()
	if len(remaining) == 0 {
		return nil
	}
	adjustFitness(remaining)
	spawn := spawnAmounts(remaining, p.cfg.PopulationSize, p.cfg.MinSpeciesSize)

	next := make([]*Genome, 0, p.cfg.PopulationSize)
	for i, s := range remaining {
		ranked := make([]*Genome, len(s.Members))
		copy(ranked, s.Members)
		sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Fitness > ranked[b].Fitness })

		n := spawn[i]
		for e := 0; e < p.cfg.Elitism && e < len(ranked) && n > 0; e++ {
			next = append(next, ranked[e])
			n--
		}
		if n <= 0 {
			continue
		}

		cutoff := int(math.Ceil(p.cfg.SurvivalThreshold * float64(len(ranked))))
		cutoff = min(len(ranked), max(2, cutoff))
		parents := ranked[:cutoff]

		for ; n > 0; n-- {
			next = append(next, p.offspring(parents))
		}
	}
	return next
}

func (p *Population) offspring(parents []*Genome) *Genome {
	a := tournament(p.rng, parents, p.cfg.TournamentSize)
	child := &Genome{ID: p.nextGenomeID(), Parents: [2]int{a.ID, 0}}

	if len(parents) > 1 && p.rng.Float64() < p.cfg.CrossoverRate {
		b := tournament(p.rng, parents, p.cfg.TournamentSize)
		if b.Fitness > a.Fitness {
			a, b = b, a
		}
		child.Parents = [2]int{a.ID, b.ID}
		child.Brain = neural.Crossover(p.rng, a.Brain, b.Brain)
	} else {
		child.Brain = a.Brain.Clone()
	}

	child.Brain.Mutate(p.rng, p.mutation)
	return child
}

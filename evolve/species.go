package evolve

import (
	"math"
	"sort"

	"github.com/pthm-cable/flappy/neural"
)

// SpeciesColor is an RGB color used to tell species apart on screen.
type SpeciesColor struct {
	R, G, B uint8
}

// Species is a group of genomes whose parameters lie close to a shared
// representative.
type Species struct {
	ID             int
	Created        int // generation the species appeared
	LastImproved   int
	Representative *neural.FFNN
	Members        []*Genome

	Fitness         float64 // max member fitness in the latest generation
	BestFitness     float64 // best Fitness seen over the species' life
	AdjustedFitness float64
}

// Size returns the number of members.
func (s *Species) Size() int { return len(s.Members) }

// Stagnation returns the generations since the species last improved.
func (s *Species) Stagnation(generation int) int { return generation - s.LastImproved }

var speciesColors = generateDistinctColors(64)

// ColorFor returns a stable display color for a species ID.
func ColorFor(speciesID int) SpeciesColor {
	if speciesID <= 0 {
		return SpeciesColor{R: 200, G: 200, B: 200}
	}
	return speciesColors[speciesID%len(speciesColors)]
}

// generateDistinctColors spreads hues by the golden angle.
func generateDistinctColors(count int) []SpeciesColor {
	colors := make([]SpeciesColor, count)
	const goldenAngle = 137.508
	for i := 0; i < count; i++ {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		r, g, b := hsvToRGB(hue, 0.7, 0.9)
		colors[i] = SpeciesColor{R: r, G: g, B: b}
	}
	return colors
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

// SpeciesSet partitions the population by compatibility distance.
type SpeciesSet struct {
	threshold float64
	species   []*Species
	nextID    int
}

// NewSpeciesSet creates an empty set with the given compatibility threshold.
func NewSpeciesSet(threshold float64) *SpeciesSet {
	return &SpeciesSet{threshold: threshold, nextID: 1}
}

// All returns the current species ordered by ID.
func (ss *SpeciesSet) All() []*Species { return ss.species }

// Speciate assigns every genome to a species. Existing species first adopt
// the genome closest to their old representative; remaining genomes join
// the closest species within the threshold or found a new one. Species left
// without members are dropped.
func (ss *SpeciesSet) Speciate(genomes []*Genome, generation int) {
	unassigned := make(map[int]*Genome, len(genomes))
	order := make([]int, 0, len(genomes))
	for _, g := range genomes {
		unassigned[g.ID] = g
		order = append(order, g.ID)
	}

	var next []*Species
	for _, s := range ss.species {
		var closest *Genome
		best := math.Inf(1)
		for _, id := range order {
			g, ok := unassigned[id]
			if !ok {
				continue
			}
			if d := neural.Distance(s.Representative, g.Brain); d < best {
				best, closest = d, g
			}
		}
		if closest == nil {
			continue
		}
		delete(unassigned, closest.ID)
		s.Representative = closest.Brain.Clone()
		s.Members = []*Genome{closest}
		closest.Species = s.ID
		next = append(next, s)
	}

	for _, id := range order {
		g, ok := unassigned[id]
		if !ok {
			continue
		}
		var home *Species
		best := math.Inf(1)
		for _, s := range next {
			if d := neural.Distance(s.Representative, g.Brain); d < ss.threshold && d < best {
				best, home = d, s
			}
		}
		if home == nil {
			home = &Species{
				ID:             ss.nextID,
				Created:        generation,
				LastImproved:   generation,
				Representative: g.Brain.Clone(),
				BestFitness:    math.Inf(-1),
			}
			ss.nextID++
			next = append(next, home)
		}
		home.Members = append(home.Members, g)
		g.Species = home.ID
	}

	sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })
	ss.species = next
}

// updateFitness records each species' fitness and improvement history.
func (ss *SpeciesSet) updateFitness(generation int) {
	for _, s := range ss.species {
		s.Fitness = math.Inf(-1)
		for _, g := range s.Members {
			s.Fitness = max(s.Fitness, g.Fitness)
		}
		if s.Fitness > s.BestFitness {
			s.BestFitness = s.Fitness
			s.LastImproved = generation
		}
	}
}

// removeStagnant drops species that have not improved for maxStagnation
// generations, always sparing the speciesElitism best species. Removed
// species are returned.
func (ss *SpeciesSet) removeStagnant(generation, maxStagnation, speciesElitism int) []*Species {
	ranked := make([]*Species, len(ss.species))
	copy(ranked, ss.species)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Fitness > ranked[j].Fitness })

	protected := make(map[int]bool, speciesElitism)
	for i := 0; i < speciesElitism && i < len(ranked); i++ {
		protected[ranked[i].ID] = true
	}

	var kept, removed []*Species
	for _, s := range ss.species {
		if !protected[s.ID] && s.Stagnation(generation) >= maxStagnation {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	ss.species = kept
	return removed
}

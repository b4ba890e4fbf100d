package evolve

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/flappy/neural"
)

func constGenome(t *testing.T, id int, value float64) *Genome {
	t.Helper()
	nn, err := neural.New([]int{3, 1}, "tanh", "tanh")
	require.NoError(t, err)
	nn.EachParam(func(_ bool, v *float64) { *v = value })
	return &Genome{ID: id, Brain: nn}
}

func TestSpeciateByDistance(t *testing.T) {
	genomes := []*Genome{
		constGenome(t, 1, 0),
		constGenome(t, 2, 0.5),
		constGenome(t, 3, 10),
		constGenome(t, 4, 10.5),
	}

	ss := NewSpeciesSet(1.0)
	ss.Speciate(genomes, 0)

	require.Len(t, ss.All(), 2)
	require.Equal(t, genomes[0].Species, genomes[1].Species)
	require.Equal(t, genomes[2].Species, genomes[3].Species)
	require.NotEqual(t, genomes[0].Species, genomes[2].Species)

	// Species identities survive the next generation
	first := genomes[0].Species
	next := []*Genome{constGenome(t, 5, 0.1), constGenome(t, 6, 10.2)}
	ss.Speciate(next, 1)
	require.Len(t, ss.All(), 2)
	require.Equal(t, first, next[0].Species)
}

func TestSpeciateDropsEmptySpecies(t *testing.T) {
	ss := NewSpeciesSet(1.0)
	ss.Speciate([]*Genome{constGenome(t, 1, 0), constGenome(t, 2, 10)}, 0)
	require.Len(t, ss.All(), 2)

	ss.Speciate([]*Genome{constGenome(t, 3, 0)}, 1)
	require.Len(t, ss.All(), 1)
}

func TestRemoveStagnantSparesElite(t *testing.T) {
	ss := NewSpeciesSet(1.0)
	ss.Speciate([]*Genome{constGenome(t, 1, 0), constGenome(t, 2, 10), constGenome(t, 3, 20)}, 0)
	for i, s := range ss.All() {
		s.Members[0].Fitness = float64(i)
	}
	ss.updateFitness(0)

	removed := ss.removeStagnant(5, 5, 1)
	require.Len(t, removed, 2)
	require.Len(t, ss.All(), 1)
	require.Equal(t, 2.0, ss.All()[0].Fitness)
}

func TestSpawnAmounts(t *testing.T) {
	tests := []struct {
		name     string
		adjusted []float64
		total    int
		minSize  int
		want     []int
	}{
		{"proportional", []float64{1, 3}, 40, 2, []int{10, 30}},
		{"all zero splits evenly", []float64{0, 0}, 10, 2, []int{5, 5}},
		{"floor at min size", []float64{0, 1}, 10, 2, []int{2, 8}},
		{"largest remainder", []float64{1, 1, 1}, 10, 1, []int{4, 3, 3}},
		{"floor taken from largest", []float64{0, 0, 0, 1}, 10, 2, []int{2, 2, 2, 4}},
		{"too many species for min size", []float64{1, 1, 1, 1, 1}, 6, 2, []int{2, 1, 1, 1, 1}},
		{"more species than offspring", []float64{0, 0, 1}, 2, 2, []int{0, 0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			species := make([]*Species, len(tt.adjusted))
			for i, a := range tt.adjusted {
				species[i] = &Species{ID: i + 1, AdjustedFitness: a}
			}
			got := spawnAmounts(species, tt.total, tt.minSize)
			require.Equal(t, tt.want, got)

			sum := 0
			for _, n := range got {
				sum += n
			}
			require.Equal(t, tt.total, sum)
		})
	}
}

func TestTournamentPrefersFitter(t *testing.T) {
	ranked := []*Genome{{ID: 1, Fitness: 10}, {ID: 2, Fitness: 1}, {ID: 3, Fitness: 0}}
	rng := rand.New(rand.NewSource(1))

	wins := map[int]int{}
	for i := 0; i < 1000; i++ {
		wins[tournament(rng, ranked, 3).ID]++
	}
	require.Greater(t, wins[1], wins[2])
	require.Greater(t, wins[2], wins[3])
}

func TestColorForIsStable(t *testing.T) {
	require.Equal(t, ColorFor(7), ColorFor(7))
	require.NotEqual(t, ColorFor(1), ColorFor(2))
	require.Equal(t, SpeciesColor{R: 200, G: 200, B: 200}, ColorFor(0))
}

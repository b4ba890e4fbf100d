package neural

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// MutationParams controls per-parameter mutation.
type MutationParams struct {
	WeightRate        float64 // probability a weight is perturbed
	WeightPower       float64 // stdev of the perturbation
	WeightReplaceRate float64 // probability a weight is redrawn from the init distribution
	BiasRate          float64
	BiasPower         float64
	BiasReplaceRate   float64
	MaxValue          float64 // parameters are clamped to [-MaxValue, MaxValue]
	InitStdev         float64
}

// Mutate perturbs the network in place and returns the average absolute
// change of the parameters that were touched.
func (nn *FFNN) Mutate(rng *rand.Rand, p MutationParams) float64 {
	var total float64
	var count int

	nn.EachParam(func(bias bool, v *float64) {
		rate, power, replace := p.WeightRate, p.WeightPower, p.WeightReplaceRate
		if bias {
			rate, power, replace = p.BiasRate, p.BiasPower, p.BiasReplaceRate
		}

		old := *v
		r := rng.Float64()
		switch {
		case r < rate:
			*v += rng.NormFloat64() * power
		case r < rate+replace:
			*v = rng.NormFloat64() * p.InitStdev
		default:
			return
		}
		if p.MaxValue > 0 {
			*v = max(-p.MaxValue, min(p.MaxValue, *v))
		}

		d := *v - old
		if d < 0 {
			d = -d
		}
		total += d
		count++
	})

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// Crossover builds a child by picking each parameter from a or b with equal
// probability. Both parents must have the same shape; the child takes a's
// activations.
func Crossover(rng *rand.Rand, a, b *FFNN) *FFNN {
	child := a.Clone()
	other := b.Params()
	i := 0
	child.EachParam(func(_ bool, v *float64) {
		if rng.Intn(2) == 1 {
			*v = other[i]
		}
		i++
	})
	return child
}

// Distance is the mean absolute parameter difference between two networks of
// the same shape.
func Distance(a, b *FFNN) float64 {
	pa, pb := a.Params(), b.Params()
	if len(pa) == 0 {
		return 0
	}
	return floats.Distance(pa, pb, 1) / float64(len(pa))
}

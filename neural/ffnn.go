// Package neural provides the feed-forward controller networks.
package neural

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer is one fully connected layer: out = act(W·in + B).
type Layer struct {
	W *mat.Dense    // out × in
	B *mat.VecDense // out
}

// FFNN is a fully connected feed-forward network with any number of hidden
// layers. Activate reuses internal buffers, so a network must not be shared
// between goroutines; Clone gives each owner its own copy.
type FFNN struct {
	Layers []Layer

	hiddenName string
	outputName string
	hidden     Activation
	output     Activation

	buf []*mat.VecDense
}

// New creates a network with the given layer sizes (inputs, hidden..., outputs)
// and zero weights.
func New(sizes []int, hiddenAct, outputAct string) (*FFNN, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("network needs at least an input and an output layer, got sizes %v", sizes)
	}
	for i, n := range sizes {
		if n <= 0 {
			return nil, fmt.Errorf("layer %d has size %d", i, n)
		}
	}
	hidden, err := LookupActivation(hiddenAct)
	if err != nil {
		return nil, fmt.Errorf("hidden activation: %w", err)
	}
	output, err := LookupActivation(outputAct)
	if err != nil {
		return nil, fmt.Errorf("output activation: %w", err)
	}

	nn := &FFNN{
		Layers:     make([]Layer, len(sizes)-1),
		hiddenName: hiddenAct,
		outputName: outputAct,
		hidden:     hidden,
		output:     output,
		buf:        make([]*mat.VecDense, len(sizes)-1),
	}
	for i := range nn.Layers {
		nn.Layers[i] = Layer{
			W: mat.NewDense(sizes[i+1], sizes[i], nil),
			B: mat.NewVecDense(sizes[i+1], nil),
		}
		nn.buf[i] = mat.NewVecDense(sizes[i+1], nil)
	}
	return nn, nil
}

// NewRandom creates a network with weights and biases drawn from N(0, stdev).
func NewRandom(rng *rand.Rand, sizes []int, hiddenAct, outputAct string, stdev float64) (*FFNN, error) {
	nn, err := New(sizes, hiddenAct, outputAct)
	if err != nil {
		return nil, err
	}
	nn.EachParam(func(_ bool, v *float64) {
		*v = rng.NormFloat64() * stdev
	})
	return nn, nil
}

// Activate runs a forward pass and returns a fresh slice of outputs.
func (nn *FFNN) Activate(inputs []float64) []float64 {
	var in mat.Vector = mat.NewVecDense(len(inputs), inputs)
	last := len(nn.Layers) - 1

	for i, l := range nn.Layers {
		out := nn.buf[i]
		out.MulVec(l.W, in)
		out.AddVec(out, l.B)

		act := nn.hidden
		if i == last {
			act = nn.output
		}
		data := out.RawVector().Data
		for j := range data {
			data[j] = act(data[j])
		}
		in = out
	}

	result := make([]float64, nn.buf[last].Len())
	copy(result, nn.buf[last].RawVector().Data)
	return result
}

// Trace returns a copy of every layer's outputs from the most recent
// Activate call, hidden layers first.
func (nn *FFNN) Trace() [][]float64 {
	out := make([][]float64, len(nn.buf))
	for i, b := range nn.buf {
		out[i] = append([]float64(nil), b.RawVector().Data...)
	}
	return out
}

// EachParam visits every weight and then every bias of each layer, in order.
// The callback may modify the value in place.
func (nn *FFNN) EachParam(fn func(bias bool, v *float64)) {
	for _, l := range nn.Layers {
		w := l.W.RawMatrix().Data
		for i := range w {
			fn(false, &w[i])
		}
		b := l.B.RawVector().Data
		for i := range b {
			fn(true, &b[i])
		}
	}
}

// Params returns a flat copy of all parameters in EachParam order.
func (nn *FFNN) Params() []float64 {
	out := make([]float64, 0, nn.NumParams())
	nn.EachParam(func(_ bool, v *float64) {
		out = append(out, *v)
	})
	return out
}

// NumParams returns the number of weights plus biases.
func (nn *FFNN) NumParams() int {
	n := 0
	for _, l := range nn.Layers {
		r, c := l.W.Dims()
		n += r*c + l.B.Len()
	}
	return n
}

// Sizes returns the layer sizes, inputs first.
func (nn *FFNN) Sizes() []int {
	sizes := make([]int, 0, len(nn.Layers)+1)
	_, in := nn.Layers[0].W.Dims()
	sizes = append(sizes, in)
	for _, l := range nn.Layers {
		sizes = append(sizes, l.B.Len())
	}
	return sizes
}

// SameShape reports whether two networks have identical layer sizes.
func (nn *FFNN) SameShape(other *FFNN) bool {
	a, b := nn.Sizes(), other.Sizes()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := &FFNN{
		Layers:     make([]Layer, len(nn.Layers)),
		hiddenName: nn.hiddenName,
		outputName: nn.outputName,
		hidden:     nn.hidden,
		output:     nn.output,
		buf:        make([]*mat.VecDense, len(nn.Layers)),
	}
	for i, l := range nn.Layers {
		clone.Layers[i] = Layer{
			W: mat.DenseCopyOf(l.W),
			B: mat.VecDenseCopyOf(l.B),
		}
		clone.buf[i] = mat.NewVecDense(l.B.Len(), nil)
	}
	return clone
}

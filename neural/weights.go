package neural

import "fmt"

// BrainWeights holds flattened network parameters for serialization.
type BrainWeights struct {
	Sizes  []int          `json:"sizes"`
	Hidden string         `json:"hidden_activation"`
	Output string         `json:"output_activation"`
	Layers []LayerWeights `json:"layers"`
}

// LayerWeights is one layer in row-major order (W is out × in).
type LayerWeights struct {
	W []float64 `json:"w"`
	B []float64 `json:"b"`
}

// MarshalWeights flattens the network for JSON serialization.
func (nn *FFNN) MarshalWeights() BrainWeights {
	bw := BrainWeights{
		Sizes:  nn.Sizes(),
		Hidden: nn.hiddenName,
		Output: nn.outputName,
		Layers: make([]LayerWeights, len(nn.Layers)),
	}
	for i, l := range nn.Layers {
		r, c := l.W.Dims()
		w := make([]float64, 0, r*c)
		for row := 0; row < r; row++ {
			w = append(w, l.W.RawRowView(row)...)
		}
		b := make([]float64, l.B.Len())
		copy(b, l.B.RawVector().Data)
		bw.Layers[i] = LayerWeights{W: w, B: b}
	}
	return bw
}

// FromWeights rebuilds a network from its flattened form.
func FromWeights(bw BrainWeights) (*FFNN, error) {
	nn, err := New(bw.Sizes, bw.Hidden, bw.Output)
	if err != nil {
		return nil, err
	}
	if len(bw.Layers) != len(nn.Layers) {
		return nil, fmt.Errorf("weights have %d layers, sizes imply %d", len(bw.Layers), len(nn.Layers))
	}
	for i, lw := range bw.Layers {
		l := nn.Layers[i]
		r, c := l.W.Dims()
		if len(lw.W) != r*c || len(lw.B) != r {
			return nil, fmt.Errorf("layer %d: got %d weights and %d biases, want %d and %d",
				i, len(lw.W), len(lw.B), r*c, r)
		}
		for row := 0; row < r; row++ {
			l.W.SetRow(row, lw.W[row*c:(row+1)*c])
		}
		copy(l.B.RawVector().Data, lw.B)
	}
	return nn, nil
}

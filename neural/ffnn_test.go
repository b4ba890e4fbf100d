package neural

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

func newTestNet(t *testing.T, sizes ...int) *FFNN {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	nn, err := NewRandom(rng, sizes, "tanh", "tanh", 1.0)
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	return nn
}

func TestNewDimensions(t *testing.T) {
	nn := newTestNet(t, 3, 4, 1)

	if len(nn.Layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(nn.Layers))
	}
	if r, c := nn.Layers[0].W.Dims(); r != 4 || c != 3 {
		t.Errorf("layer 0 W is %dx%d, want 4x3", r, c)
	}
	if r, c := nn.Layers[1].W.Dims(); r != 1 || c != 4 {
		t.Errorf("layer 1 W is %dx%d, want 1x4", r, c)
	}
	if got := nn.NumParams(); got != 3*4+4+4*1+1 {
		t.Errorf("NumParams = %d, want 21", got)
	}
	sizes := nn.Sizes()
	if len(sizes) != 3 || sizes[0] != 3 || sizes[1] != 4 || sizes[2] != 1 {
		t.Errorf("Sizes = %v, want [3 4 1]", sizes)
	}
}

func TestNewRejectsBadShape(t *testing.T) {
	tests := []struct {
		name   string
		sizes  []int
		hidden string
	}{
		{"single layer", []int{3}, "tanh"},
		{"zero width", []int{3, 0, 1}, "tanh"},
		{"unknown activation", []int{3, 1}, "softsign"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.sizes, tt.hidden, "tanh"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestActivateKnownWeights(t *testing.T) {
	nn, err := New([]int{3, 1}, "identity", "identity")
	if err != nil {
		t.Fatal(err)
	}
	nn.Layers[0].W.SetRow(0, []float64{1, -2, 0.5})
	nn.Layers[0].B.SetVec(0, 0.25)

	out := nn.Activate([]float64{2, 1, 4})
	// 2 - 2 + 2 + 0.25
	if len(out) != 1 || out[0] != 2.25 {
		t.Errorf("Activate = %v, want [2.25]", out)
	}
}

func TestActivateTanhRange(t *testing.T) {
	nn := newTestNet(t, 3, 1)

	for _, in := range [][]float64{{350, 50, 150}, {0, 0, 0}, {-1000, 1e6, 3}} {
		out := nn.Activate(in)
		if out[0] < -1 || out[0] > 1 || math.IsNaN(out[0]) {
			t.Errorf("output %v out of [-1,1] for inputs %v", out[0], in)
		}
	}
}

func TestActivateDeterministic(t *testing.T) {
	nn := newTestNet(t, 3, 5, 1)
	in := []float64{350, 12, 188}

	a := nn.Activate(in)
	b := nn.Activate(in)
	if a[0] != b[0] {
		t.Error("Activate is not deterministic")
	}

	// The returned slice is a copy
	a[0] = 99
	if c := nn.Activate(in); c[0] == 99 {
		t.Error("Activate returned its internal buffer")
	}
}

func TestClone(t *testing.T) {
	nn := newTestNet(t, 3, 2, 1)
	clone := nn.Clone()

	if Distance(nn, clone) != 0 {
		t.Error("clone has different parameters")
	}

	clone.Layers[0].W.Set(0, 0, 999)
	if nn.Layers[0].W.At(0, 0) == 999 {
		t.Error("clone is not independent")
	}
}

func TestMutate(t *testing.T) {
	nn := newTestNet(t, 3, 1)
	before := nn.Clone()
	rng := rand.New(rand.NewSource(7))

	delta := nn.Mutate(rng, MutationParams{
		WeightRate:  1,
		WeightPower: 0.5,
		BiasRate:    1,
		BiasPower:   0.5,
		MaxValue:    30,
	})
	if delta <= 0 {
		t.Errorf("average delta = %v, want > 0", delta)
	}
	if Distance(nn, before) == 0 {
		t.Error("Mutate did not change parameters")
	}
}

func TestMutateClamps(t *testing.T) {
	nn := newTestNet(t, 3, 1)
	rng := rand.New(rand.NewSource(7))

	nn.Mutate(rng, MutationParams{WeightRate: 1, WeightPower: 100, BiasRate: 1, BiasPower: 100, MaxValue: 2})
	for _, v := range nn.Params() {
		if v < -2 || v > 2 {
			t.Fatalf("parameter %v escaped the clamp", v)
		}
	}
}

func TestMutateZeroRates(t *testing.T) {
	nn := newTestNet(t, 3, 1)
	before := nn.Clone()

	if d := nn.Mutate(rand.New(rand.NewSource(1)), MutationParams{}); d != 0 {
		t.Errorf("delta = %v with zero rates", d)
	}
	if Distance(nn, before) != 0 {
		t.Error("zero rates changed parameters")
	}
}

func TestCrossoverTakesFromParents(t *testing.T) {
	a, _ := New([]int{3, 4, 1}, "tanh", "tanh")
	b, _ := New([]int{3, 4, 1}, "tanh", "tanh")
	b.EachParam(func(_ bool, v *float64) { *v = 1 })

	child := Crossover(rand.New(rand.NewSource(3)), a, b)

	zeros, ones := 0, 0
	for _, v := range child.Params() {
		switch v {
		case 0:
			zeros++
		case 1:
			ones++
		default:
			t.Fatalf("child parameter %v came from neither parent", v)
		}
	}
	if zeros == 0 || ones == 0 {
		t.Errorf("child took all genes from one parent: zeros=%d ones=%d", zeros, ones)
	}
}

func TestWeightsJSONRoundTrip(t *testing.T) {
	nn := newTestNet(t, 3, 4, 1)

	data, err := json.Marshal(nn.MarshalWeights())
	if err != nil {
		t.Fatal(err)
	}
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		t.Fatal(err)
	}
	restored, err := FromWeights(bw)
	if err != nil {
		t.Fatalf("FromWeights: %v", err)
	}

	in := []float64{300, 40, 160}
	if a, b := nn.Activate(in), restored.Activate(in); a[0] != b[0] {
		t.Errorf("restored network output %v, want %v", b[0], a[0])
	}
}

func TestFromWeightsRejectsMismatch(t *testing.T) {
	bw := newTestNet(t, 3, 1).MarshalWeights()
	bw.Layers[0].W = bw.Layers[0].W[:2]

	if _, err := FromWeights(bw); err == nil {
		t.Error("expected an error for truncated weights")
	}
}

func BenchmarkActivate(b *testing.B) {
	nn, _ := NewRandom(rand.New(rand.NewSource(42)), []int{3, 8, 1}, "tanh", "tanh", 1)
	in := []float64{350, 20, 180}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nn.Activate(in)
	}
}

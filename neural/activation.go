package neural

import (
	"fmt"
	"math"
)

// Activation is an element-wise transfer function.
type Activation func(float64) float64

// Inputs are scaled and clamped before the exponential the same way the
// classic NEAT implementations do, so saved controllers behave identically.
func tanhActivation(z float64) float64 {
	z = max(-60, min(60, 2.5*z))
	return math.Tanh(z)
}

func sigmoidActivation(z float64) float64 {
	z = max(-60, min(60, 5*z))
	return 1 / (1 + math.Exp(-z))
}

func reluActivation(z float64) float64 {
	if z > 0 {
		return z
	}
	return 0
}

func clampedActivation(z float64) float64 {
	return max(-1, min(1, z))
}

func identityActivation(z float64) float64 { return z }

var activations = map[string]Activation{
	"tanh":     tanhActivation,
	"sigmoid":  sigmoidActivation,
	"relu":     reluActivation,
	"clamped":  clampedActivation,
	"identity": identityActivation,
}

// LookupActivation returns the activation registered under name.
func LookupActivation(name string) (Activation, error) {
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("unknown activation %q", name)
	}
	return fn, nil
}

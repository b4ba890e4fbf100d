package game

import (
	"errors"

	"github.com/pthm-cable/flappy/components"
)

// ErrQuit is returned when the presentation layer asks to stop training.
var ErrQuit = errors.New("game: quit requested")

// Presenter displays frames between ticks. Present returns true when the
// user has asked to quit. A nil Presenter means a headless run.
type Presenter interface {
	Present(f *Frame) (quit bool)
}

// AgentView is the drawable state of one live agent.
type AgentView struct {
	ID        int
	Species   int
	X, Y      float64
	Tilt      float64
	WingFrame int

	Inputs     [3]float64
	Output     float64
	Controller components.Controller // Read-only; do not Activate
}

// Frame is a snapshot of a trial after a tick.
type Frame struct {
	Generation  int
	Tick        int
	Score       int
	Alive       int
	Population  int
	BestFitness float64

	Agents []AgentView
	Pipes  []components.Pipe
	Ground components.Ground
}

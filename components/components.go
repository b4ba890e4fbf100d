// Package components defines the game's entity state.
//
// Agents live in the ECS world as entities carrying Position, Flight, Pose and
// Pilot. Pipes and the ground are plain values owned by the world.
package components

// Position represents an agent's world position (top-left of its silhouette).
type Position struct {
	X, Y float64
}

// Flight holds vertical motion state.
type Flight struct {
	Velocity float64 // Set by a jump, constant in between
	Ticks    int     // Ticks since the last jump
	Anchor   float64 // Y at the last jump, used for tilt
}

// Pose holds presentation-only state. It never affects collision.
type Pose struct {
	Tilt       float64 // Degrees, positive = nose up
	Frame      int     // Animation frame index
	FrameCount int     // Ticks into the animation cycle
}

// Controller maps an observation to output activations.
type Controller interface {
	Activate(inputs []float64) []float64
}

// Scored is the fitness accumulator owned by the evolutionary algorithm.
type Scored interface {
	AddFitness(delta float64)
}

// Pilot binds an agent to its controller and fitness accumulator.
// The three are stored on one entity and removed together.
type Pilot struct {
	ID         int
	Species    int // Display only
	Controller Controller
	Score      Scored

	// Last observation and decision, display only
	Inputs [3]float64
	Output float64
}

// Pipe is a top/bottom obstacle pair with a fixed vertical gap.
type Pipe struct {
	X      float64
	Top    float64 // Y of the gap's upper edge
	Gap    float64
	Passed bool
}

// Bottom returns the Y of the gap's lower edge (top of the bottom segment).
func (p *Pipe) Bottom() float64 {
	return p.Top + p.Gap
}

// TopSegmentY returns the Y where the top segment of the given height starts.
func (p *Pipe) TopSegmentY(height float64) float64 {
	return p.Top - height
}

// Ground is a floor made of two tiles that chase each other.
type Ground struct {
	Y      float64
	XStart float64
	XEnd   float64
	Width  float64
}

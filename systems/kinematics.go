// Package systems contains the per-tick game rules: kinematics, obstacle
// spawning and collision.
package systems

import (
	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// FlightModel holds the agent's vertical motion and tilt constants.
type FlightModel struct {
	JumpVelocity     float64
	HalfGravity      float64
	MaxDisplacement  float64
	FallPenalty      float64
	MaxRotation      float64
	MinRotation      float64
	RotationVelocity float64
	TiltHold         float64
	AnimationTime    int
}

// NewFlightModel builds a flight model from the bird config.
func NewFlightModel(cfg *config.Config) FlightModel {
	b := cfg.Bird
	return FlightModel{
		JumpVelocity:     b.JumpVelocity,
		HalfGravity:      cfg.Derived.HalfGravity,
		MaxDisplacement:  b.MaxDisplacement,
		FallPenalty:      b.FallPenalty,
		MaxRotation:      b.MaxRotation,
		MinRotation:      b.MinRotation,
		RotationVelocity: b.RotationVelocity,
		TiltHold:         b.TiltHold,
		AnimationTime:    b.AnimationTime,
	}
}

// Displacement returns the vertical movement for a tick, t ticks after the
// last jump. Downward movement is clamped; upward movement gets a small boost.
func (m FlightModel) Displacement(velocity float64, t int) float64 {
	ft := float64(t)
	d := velocity*ft + m.HalfGravity*ft*ft

	if d >= m.MaxDisplacement {
		d = m.MaxDisplacement
	}
	if d < 0 {
		d -= m.FallPenalty
	}
	return d
}

// Move advances an agent by one tick and returns the applied displacement.
func (m FlightModel) Move(pos *components.Position, f *components.Flight, pose *components.Pose) float64 {
	f.Ticks++
	d := m.Displacement(f.Velocity, f.Ticks)
	pos.Y += d

	// Nose up while rising or shortly after a jump, otherwise rotate down
	if d < 0 || pos.Y < f.Anchor+m.TiltHold {
		if pose.Tilt < m.MaxRotation {
			pose.Tilt = m.MaxRotation
		}
	} else if pose.Tilt > m.MinRotation {
		pose.Tilt -= m.RotationVelocity
	}

	return d
}

// Jump resets the agent's flight regardless of prior state.
func (m FlightModel) Jump(pos *components.Position, f *components.Flight) {
	f.Velocity = m.JumpVelocity
	f.Ticks = 0
	f.Anchor = pos.Y
}

// Animate advances the wing-flap cycle. A nose-diving agent stops flapping.
func (m FlightModel) Animate(pose *components.Pose) {
	a := m.AnimationTime
	pose.FrameCount++

	switch {
	case pose.FrameCount < a*2:
		pose.Frame = 0
	case pose.FrameCount < a*3:
		pose.Frame = 2
	case pose.FrameCount < a*4:
		pose.Frame = 1
	case pose.FrameCount == a*4+1:
		pose.Frame = 0
		pose.FrameCount = 0
	}

	if pose.Tilt <= m.MinRotation+10 {
		pose.Frame = 1
		pose.FrameCount = a * 2
	}
}

// MovePipe translates a pipe left by velocity.
func MovePipe(p *components.Pipe, velocity float64) {
	p.X -= velocity
}

// MoveGround scrolls both ground tiles and wraps a tile that has left the
// screen to just behind the other one.
func MoveGround(g *components.Ground, velocity float64) {
	g.XStart -= velocity
	g.XEnd -= velocity

	if g.XStart+g.Width < 0 {
		g.XStart = g.XEnd + g.Width
	}
	if g.XEnd+g.Width < 0 {
		g.XEnd = g.XStart + g.Width
	}
}

// NewGround places two tiles back to back starting at x=0.
func NewGround(y, width float64) components.Ground {
	return components.Ground{Y: y, XStart: 0, XEnd: width, Width: width}
}

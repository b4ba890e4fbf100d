package systems

import (
	"testing"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

func testModel(t *testing.T) FlightModel {
	t.Helper()
	return NewFlightModel(config.MustLoad(""))
}

func TestDisplacementMonotoneUntilClamp(t *testing.T) {
	m := testModel(t)

	for _, v := range []float64{0, 0.5, 3} {
		prev := m.Displacement(v, 0)
		clamped := false
		for tick := 1; tick <= 200; tick++ {
			d := m.Displacement(v, tick)
			if d < prev {
				t.Fatalf("v=%v: displacement decreased at t=%d: %v < %v", v, tick, d, prev)
			}
			if d > m.MaxDisplacement {
				t.Fatalf("v=%v: displacement %v exceeds clamp at t=%d", v, d, tick)
			}
			if clamped && d != m.MaxDisplacement {
				t.Fatalf("v=%v: displacement left the clamp at t=%d: %v", v, tick, d)
			}
			if d == m.MaxDisplacement {
				clamped = true
			}
			prev = d
		}
		if !clamped {
			t.Errorf("v=%v: displacement never reached the clamp", v)
		}
	}
}

func TestDisplacementAfterJumpApex(t *testing.T) {
	m := testModel(t)
	v := m.JumpVelocity

	// Past the apex of v*t + 1.5t^2 the curve is non-decreasing as well
	prev := m.Displacement(v, 4)
	for tick := 5; tick <= 100; tick++ {
		d := m.Displacement(v, tick)
		if d < prev {
			t.Fatalf("displacement decreased at t=%d: %v < %v", tick, d, prev)
		}
		prev = d
	}
	if prev != 16 {
		t.Errorf("final displacement = %v, want 16", prev)
	}
}

func TestDisplacementValues(t *testing.T) {
	m := testModel(t)
	tests := []struct {
		v    float64
		t    int
		want float64
	}{
		{0, 1, 1.5},
		{0, 2, 6},
		{0, 3, 13.5},
		{0, 4, 16},
		{-10.5, 1, -11},  // -9 with the fall penalty
		{-10.5, 2, -17},  // -15 - 2
		{-10.5, 7, 0},    // -73.5 + 73.5
		{-10.5, 8, 12},   // -84 + 96
	}

	for _, tt := range tests {
		if got := m.Displacement(tt.v, tt.t); got != tt.want {
			t.Errorf("Displacement(%v, %d) = %v, want %v", tt.v, tt.t, got, tt.want)
		}
	}
}

func TestJumpResetsFlight(t *testing.T) {
	m := testModel(t)
	states := []components.Flight{
		{},
		{Velocity: 7, Ticks: 40, Anchor: 12},
		{Velocity: -10.5, Ticks: 1, Anchor: 300},
	}

	for _, f := range states {
		pos := components.Position{X: 230, Y: 123}
		m.Jump(&pos, &f)
		if f.Ticks != 0 {
			t.Errorf("ticks = %d after jump, want 0", f.Ticks)
		}
		if f.Velocity != -10.5 {
			t.Errorf("velocity = %v after jump, want -10.5", f.Velocity)
		}
		if f.Anchor != 123 {
			t.Errorf("anchor = %v after jump, want 123", f.Anchor)
		}
	}
}

func TestMoveKeepsX(t *testing.T) {
	m := testModel(t)
	pos := components.Position{X: 230, Y: 350}
	f := components.Flight{Anchor: 350}
	var pose components.Pose

	for i := 0; i < 10; i++ {
		m.Move(&pos, &f, &pose)
	}
	if pos.X != 230 {
		t.Errorf("x = %v, want 230", pos.X)
	}
	// 1.5 + 6 + 13.5 + 7*16
	if pos.Y != 350+133 {
		t.Errorf("y = %v, want %v", pos.Y, 350+133)
	}
}

func TestTilt(t *testing.T) {
	m := testModel(t)
	pos := components.Position{X: 230, Y: 350}
	f := components.Flight{Anchor: 350}
	var pose components.Pose

	m.Jump(&pos, &f)
	m.Move(&pos, &f, &pose)
	if pose.Tilt != m.MaxRotation {
		t.Fatalf("tilt after jump = %v, want %v", pose.Tilt, m.MaxRotation)
	}

	// Fall long enough to dive fully
	for i := 0; i < 40; i++ {
		m.Move(&pos, &f, &pose)
	}
	if pose.Tilt > m.MinRotation || pose.Tilt < m.MinRotation-m.RotationVelocity {
		t.Errorf("tilt after long fall = %v, want about %v", pose.Tilt, m.MinRotation)
	}
}

func TestAnimateNoseDive(t *testing.T) {
	m := testModel(t)
	pose := components.Pose{Tilt: -90}
	m.Animate(&pose)
	if pose.Frame != 1 {
		t.Errorf("frame = %d during nose dive, want 1", pose.Frame)
	}
	if pose.FrameCount != m.AnimationTime*2 {
		t.Errorf("frame count = %d, want %d", pose.FrameCount, m.AnimationTime*2)
	}
}

func TestAnimateCycle(t *testing.T) {
	m := testModel(t)
	var pose components.Pose
	seen := map[int]bool{}
	for i := 0; i < 4*m.AnimationTime+1; i++ {
		m.Animate(&pose)
		seen[pose.Frame] = true
	}
	if pose.FrameCount != 0 || pose.Frame != 0 {
		t.Errorf("cycle did not restart: frame=%d count=%d", pose.Frame, pose.FrameCount)
	}
	for _, f := range []int{0, 1, 2} {
		if !seen[f] {
			t.Errorf("frame %d never shown", f)
		}
	}
}

func TestMoveGroundWraps(t *testing.T) {
	g := NewGround(730, 672)

	for i := 0; i < 1000; i++ {
		MoveGround(&g, 5)

		// Tiles stay adjacent and one of them always covers x=0
		gap := g.XEnd - g.XStart
		if gap != g.Width && gap != -g.Width {
			t.Fatalf("tick %d: tiles separated by %v", i, gap)
		}
		left := min(g.XStart, g.XEnd)
		if left > 0 || left+2*g.Width < 0 {
			t.Fatalf("tick %d: ground does not cover the screen: start=%v end=%v", i, g.XStart, g.XEnd)
		}
	}
}

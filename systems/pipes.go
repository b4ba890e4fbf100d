package systems

import (
	"math/rand"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// PipeSpawner creates obstacles with a random gap height.
type PipeSpawner struct {
	rng      *rand.Rand
	minTop   int
	topRange int
	gap      float64
}

// NewPipeSpawner creates a spawner drawing gap tops from [min_top, max_top).
func NewPipeSpawner(cfg *config.Config, rng *rand.Rand) *PipeSpawner {
	return &PipeSpawner{
		rng:      rng,
		minTop:   cfg.Pipe.MinTop,
		topRange: cfg.Derived.TopRange,
		gap:      cfg.Pipe.Gap,
	}
}

// Spawn returns a new pipe at x.
func (s *PipeSpawner) Spawn(x float64) components.Pipe {
	top := s.minTop + s.rng.Intn(s.topRange)
	return components.Pipe{X: x, Top: float64(top), Gap: s.gap}
}

// MarkPassed flags the pipe as passed the first time agentX is beyond it.
// It returns true only on that first tick.
func MarkPassed(p *components.Pipe, agentX float64) bool {
	if p.Passed || p.X >= agentX {
		return false
	}
	p.Passed = true
	return true
}

// OffScreen reports whether the pipe has fully scrolled past the left edge.
func OffScreen(p *components.Pipe, width float64) bool {
	return p.X+width < 0
}

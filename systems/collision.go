package systems

import (
	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
)

// Silhouettes holds the collision masks for every sprite kind.
type Silhouettes struct {
	Bird       *Mask
	PipeTop    *Mask
	PipeBottom *Mask
	pipeHeight float64
}

// DefaultSilhouettes approximates the bird with an ellipse and pipes with
// solid rectangles, sized from config.
func DefaultSilhouettes(cfg *config.Config) Silhouettes {
	pipe := RectMask(cfg.Pipe.Width, cfg.Pipe.Height)
	return Silhouettes{
		Bird:       EllipseMask(cfg.Bird.Width, cfg.Bird.Height),
		PipeTop:    pipe,
		PipeBottom: pipe,
		pipeHeight: cfg.Derived.PipeHeight,
	}
}

// NewSilhouettes uses caller-provided masks, e.g. built with MaskFromImage.
func NewSilhouettes(bird, pipeTop, pipeBottom *Mask) Silhouettes {
	return Silhouettes{
		Bird:       bird,
		PipeTop:    pipeTop,
		PipeBottom: pipeBottom,
		pipeHeight: float64(pipeTop.Height()),
	}
}

// HitsPipe reports whether an agent at pos overlaps either segment of p.
// The offset of each segment is its position minus the agent's position.
func (s Silhouettes) HitsPipe(pos components.Position, p *components.Pipe) bool {
	dx := roundOffset(p.X) - roundOffset(pos.X)
	by := roundOffset(pos.Y)

	topY := roundOffset(p.TopSegmentY(s.pipeHeight))
	if s.Bird.Overlap(s.PipeTop, dx, topY-by) {
		return true
	}

	bottomY := roundOffset(p.Bottom())
	return s.Bird.Overlap(s.PipeBottom, dx, bottomY-by)
}

// OutOfBounds reports whether an agent's lower edge has reached the ground or
// it has risen above the top of the world.
func OutOfBounds(y, height, groundY float64) bool {
	return y+height >= groundY || y < 0
}

package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
)

// Scene draws pipes, ground and agents from a frame using primitives sized
// like the collision silhouettes.
type Scene struct {
	theme Theme

	screenW, screenH int32
	birdW, birdH     float32
	pipeW, pipeH     float32
	groundH          float32
}

// NewScene creates a scene sized from config.
func NewScene(cfg *config.Config) *Scene {
	return &Scene{
		theme:   DefaultTheme(),
		screenW: int32(cfg.Screen.Width),
		screenH: int32(cfg.Screen.Height),
		birdW:   float32(cfg.Bird.Width),
		birdH:   float32(cfg.Bird.Height),
		pipeW:   float32(cfg.Pipe.Width),
		pipeH:   float32(cfg.Pipe.Height),
		groundH: float32(cfg.Screen.Height) - float32(cfg.Ground.Y),
	}
}

// Draw renders the frame. Call between BeginDrawing and EndDrawing.
func (s *Scene) Draw(f *game.Frame) {
	rl.ClearBackground(s.theme.Sky)

	for i := range f.Pipes {
		p := &f.Pipes[i]
		top := rl.Rectangle{X: float32(p.X), Y: float32(p.TopSegmentY(float64(s.pipeH))), Width: s.pipeW, Height: s.pipeH}
		bottom := rl.Rectangle{X: float32(p.X), Y: float32(p.Bottom()), Width: s.pipeW, Height: s.pipeH}
		s.drawPipe(top)
		s.drawPipe(bottom)
	}

	g := f.Ground
	for _, x := range []float64{g.XStart, g.XEnd} {
		tile := rl.Rectangle{X: float32(x), Y: float32(g.Y), Width: float32(g.Width), Height: s.groundH}
		rl.DrawRectangleRec(tile, s.theme.GroundFill)
		rl.DrawRectangle(int32(x), int32(g.Y), int32(g.Width), 4, s.theme.GroundEdge)
	}

	for i := range f.Agents {
		s.drawAgent(&f.Agents[i])
	}
}

func (s *Scene) drawPipe(r rl.Rectangle) {
	rl.DrawRectangleRec(r, s.theme.PipeFill)
	rl.DrawRectangleLinesEx(r, 3, s.theme.PipeEdge)
}

// drawAgent draws a body rotated by the agent's tilt, with a wing whose
// position follows the flap frame.
func (s *Scene) drawAgent(a *game.AgentView) {
	color := SpeciesColor(a.Species)
	cx := float32(a.X) + s.birdW/2
	cy := float32(a.Y) + s.birdH/2
	rotation := float32(-a.Tilt)

	body := rl.Rectangle{X: cx, Y: cy, Width: s.birdW, Height: s.birdH}
	origin := rl.Vector2{X: s.birdW / 2, Y: s.birdH / 2}
	rl.DrawRectanglePro(body, origin, rotation, color)

	// Wing: up, level, down
	wingY := []float32{-s.birdH / 4, 0, s.birdH / 6}[a.WingFrame%3]
	wing := rl.Rectangle{X: cx, Y: cy, Width: s.birdW / 2.5, Height: s.birdH / 4}
	wingOrigin := rl.Vector2{X: s.birdW / 2.5, Y: s.birdH/8 - wingY}
	rl.DrawRectanglePro(wing, wingOrigin, rotation, rl.Fade(rl.White, 0.7))

	// Eye toward the beak
	eye := rl.Vector2Add(rl.Vector2{X: cx, Y: cy}, rl.Vector2Rotate(rl.Vector2{X: s.birdW / 4, Y: -s.birdH / 5}, rotation*rl.Deg2rad))
	rl.DrawCircleV(eye, s.birdH/8, rl.White)
	rl.DrawCircleV(eye, s.birdH/16, rl.Black)
}

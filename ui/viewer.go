package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/game"
)

const (
	maxSpeed = 20
	legend   = "[SPACE] pause  [UP/DOWN] speed  [N] network  [ESC] quit"
)

// Viewer is a raylib window that presents trial frames. It paces at the
// configured target FPS; Speed ticks are simulated per drawn frame.
type Viewer struct {
	scene   *Scene
	hud     *HUD
	network *NetworkPanel

	screenW, screenH int32

	speed       float32
	paused      bool
	showNetwork bool
	pending     int
}

// NewViewer opens the window. Call Close when done.
func NewViewer(cfg *config.Config, title string) *Viewer {
	w, h := int32(cfg.Screen.Width), int32(cfg.Screen.Height)
	rl.InitWindow(w, h, title)
	if cfg.Screen.TargetFPS > 0 {
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	}

	return &Viewer{
		scene:       NewScene(cfg),
		hud:         NewHUD(10, 10, 190),
		network:     NewNetworkPanel(10, int32(cfg.Ground.Y)-170, 220, 160, float64(h), cfg.Fitness.JumpThreshold),
		screenW:     w,
		screenH:     h,
		speed:       1,
		showNetwork: true,
	}
}

// Close closes the window.
func (v *Viewer) Close() {
	rl.CloseWindow()
}

// Present implements game.Presenter.
func (v *Viewer) Present(f *game.Frame) bool {
	v.pending++
	if v.pending < int(v.speed) {
		return false
	}
	v.pending = 0

	for {
		if rl.WindowShouldClose() {
			return true
		}
		v.handleInput()

		rl.BeginDrawing()
		v.scene.Draw(f)
		v.hud.Draw(HUDData{
			Generation:  f.Generation,
			Score:       f.Score,
			Alive:       f.Alive,
			Population:  f.Population,
			Tick:        f.Tick,
			BestFitness: f.BestFitness,
			Speed:       int(v.speed),
			FPS:         rl.GetFPS(),
			Paused:      v.paused,
		})
		if v.showNetwork && len(f.Agents) > 0 {
			v.network.Draw(&f.Agents[0])
		}
		v.drawControls()
		v.hud.DrawControls(v.screenH, legend)
		rl.EndDrawing()

		// While paused keep redrawing the same frame
		if !v.paused {
			return false
		}
	}
}

func (v *Viewer) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		v.showNetwork = !v.showNetwork
	}
	if rl.IsKeyPressed(rl.KeyUp) {
		v.speed = min(v.speed+1, maxSpeed)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		v.speed = max(v.speed-1, 1)
	}
}

// drawControls renders the speed slider and pause button.
func (v *Viewer) drawControls() {
	x := float32(v.screenW - 210)
	y := float32(10)

	label := "Pause"
	if v.paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 200, Height: 26}, label) {
		v.paused = !v.paused
	}
	y += 34

	speed := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: 150, Height: 18},
		"1", "20",
		v.speed, 1, maxSpeed,
	)
	v.speed = float32(int(speed + 0.5))
}

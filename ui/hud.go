package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds everything the heads-up display shows.
type HUDData struct {
	Generation  int
	Score       int
	Alive       int
	Population  int
	Tick        int
	BestFitness float64
	Speed       int
	FPS         int32
	Paused      bool
}

// HUD renders the score and training progress.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a HUD panel anchored at (x, y).
func NewHUD(x, y, width int32) *HUD {
	return &HUD{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	t := r.Theme

	// Score, large and centered like the arcade original
	score := fmt.Sprintf("%d", data.Score)
	size := int32(48)
	sw := rl.MeasureText(score, size)
	rl.DrawText(score, (int32(rl.GetScreenWidth())-sw)/2, 40, size, rl.White)

	height := t.LineHeight*6 + t.Padding*2
	r.DrawPanel(h.x, h.y, h.width, height)

	x := h.x + t.Padding
	y := h.y + t.Padding
	y = r.DrawLabelValue(x, y, "Gen", fmt.Sprintf("%d", data.Generation))
	y = r.DrawLabelValue(x, y, "Alive", fmt.Sprintf("%d / %d", data.Alive, data.Population))
	y = r.DrawLabelValue(x, y, "Best", fmt.Sprintf("%.1f", data.BestFitness))
	y = r.DrawLabelValue(x, y, "Tick", fmt.Sprintf("%d", data.Tick))
	y = r.DrawLabelValue(x, y, "Speed", fmt.Sprintf("%dx | %d fps", data.Speed, data.FPS))

	if data.Paused {
		rl.DrawText("PAUSED", x, y, t.FontSize, t.Highlight)
	}
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, legend string) {
	rl.DrawText(legend, 10, screenHeight-22, 14, rl.DarkGray)
}

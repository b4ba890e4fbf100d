// Package ui draws training runs with raylib. Viewer implements
// game.Presenter so the evaluator can show every tick of a trial.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/evolve"
)

// Theme holds UI and scene colors and spacing.
type Theme struct {
	Sky         rl.Color
	PipeFill    rl.Color
	PipeEdge    rl.Color
	GroundFill  rl.Color
	GroundEdge  rl.Color
	PanelBg     rl.Color
	PanelBorder rl.Color
	LabelColor  rl.Color
	ValueColor  rl.Color
	Highlight   rl.Color

	Padding    int32
	LineHeight int32
	LabelWidth int32
	FontSize   int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		Sky:         rl.Color{R: 78, G: 192, B: 202, A: 255},
		PipeFill:    rl.Color{R: 115, G: 191, B: 46, A: 255},
		PipeEdge:    rl.Color{R: 84, G: 56, B: 71, A: 255},
		GroundFill:  rl.Color{R: 222, G: 216, B: 149, A: 255},
		GroundEdge:  rl.Color{R: 84, G: 56, B: 71, A: 255},
		PanelBg:     rl.Color{R: 20, G: 25, B: 30, A: 200},
		PanelBorder: rl.Color{R: 60, G: 70, B: 80, A: 255},
		LabelColor:  rl.LightGray,
		ValueColor:  rl.White,
		Highlight:   rl.Yellow,
		Padding:     10,
		LineHeight:  18,
		LabelWidth:  90,
		FontSize:    16,
	}
}

// Renderer handles panel drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawLabelValue draws a label and value on the same line and returns the
// next line's Y.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// SpeciesColor converts a species display color to a raylib color.
func SpeciesColor(speciesID int) rl.Color {
	c := evolve.ColorFor(speciesID)
	return rl.Color{R: c.R, G: c.G, B: c.B, A: 255}
}

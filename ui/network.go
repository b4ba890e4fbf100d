package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappy/game"
	"github.com/pthm-cable/flappy/neural"
)

// Input labels for the network diagram, in observation order.
var InputLabels = []string{"y", "top", "bottom"}

// Network colors for activation visualization.
var (
	ColorNodePositive = rl.Color{R: 255, G: 100, B: 100, A: 255}
	ColorNodeNegative = rl.Color{R: 100, G: 100, B: 255, A: 255}
	ColorEdgePositive = rl.Color{R: 200, G: 80, B: 80, A: 100}
	ColorEdgeNegative = rl.Color{R: 80, G: 80, B: 200, A: 100}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// NetworkPanel draws one agent's controller with its latest activations.
type NetworkPanel struct {
	renderer            *Renderer
	x, y, width, height int32
	inputScale          float64
	threshold           float64
}

// NewNetworkPanel creates a panel. Inputs are pixel distances, so they are
// divided by inputScale before coloring. Outputs above threshold are jumps.
func NewNetworkPanel(x, y, width, height int32, inputScale, threshold float64) *NetworkPanel {
	return &NetworkPanel{
		renderer:   NewRenderer(),
		x:          x,
		y:          y,
		width:      width,
		height:     height,
		inputScale: inputScale,
		threshold:  threshold,
	}
}

// Draw renders the diagram for agent. Agents without an FFNN controller
// show a placeholder.
func (p *NetworkPanel) Draw(agent *game.AgentView) {
	p.renderer.DrawPanel(p.x, p.y, p.width, p.height)

	var nn *neural.FFNN
	if agent != nil {
		nn, _ = agent.Controller.(*neural.FFNN)
	}
	if nn == nil {
		rl.DrawText("No network data", p.x+10, p.y+10, 14, ColorLabelDim)
		return
	}

	values := make([][]float64, 0, len(nn.Layers)+1)
	inputs := make([]float64, len(agent.Inputs))
	for i, v := range agent.Inputs {
		inputs[i] = v / p.inputScale
	}
	values = append(values, inputs)
	values = append(values, nn.Trace()...)

	nodes := p.layout(nn.Sizes())
	radius := float32(6)

	for l, layer := range nn.Layers {
		rows, cols := layer.W.Dims()
		for j := 0; j < rows; j++ {
			for i := 0; i < cols; i++ {
				w := layer.W.At(j, i)
				if math.Abs(w) < 0.1 {
					continue
				}
				drawEdge(nodes[l][i], nodes[l+1][j], w)
			}
		}
	}

	last := len(nodes) - 1
	for l, layer := range nodes {
		for i, pos := range layer {
			var v float64
			if i < len(values[l]) {
				v = values[l][i]
			}
			r := radius
			if l == last {
				r += 2
			}
			drawNode(pos, r, v)

			if l == 0 && i < len(InputLabels) {
				rl.DrawText(InputLabels[i], int32(pos.X+radius+4), int32(pos.Y)-5, 10, ColorLabelDim)
			}
		}
	}

	out := nodes[last][0]
	label := "glide"
	if agent.Output > p.threshold {
		label = "JUMP"
	}
	rl.DrawText(label, int32(out.X)-20, int32(out.Y)+12, 10, rl.White)
}

// layout spaces each layer's nodes evenly in its own column.
func (p *NetworkPanel) layout(sizes []int) [][]rl.Vector2 {
	colWidth := float32(p.width) / float32(len(sizes))
	usable := float32(p.height - 20)

	nodes := make([][]rl.Vector2, len(sizes))
	for l, n := range sizes {
		x := float32(p.x) + colWidth*float32(l) + colWidth/2
		spacing := usable / float32(n)
		nodes[l] = make([]rl.Vector2, n)
		for i := range nodes[l] {
			nodes[l][i] = rl.Vector2{
				X: x,
				Y: float32(p.y) + 10 + spacing*float32(i) + spacing/2,
			}
		}
	}
	return nodes
}

// drawNode renders a single neuron node.
func drawNode(pos rl.Vector2, radius float32, activation float64) {
	rl.DrawCircleV(pos, radius, activationColor(activation))
	rl.DrawCircleLinesV(pos, radius, rl.Color{R: 100, G: 100, B: 100, A: 255})
}

// drawEdge renders a connection whose width and opacity follow |weight|.
func drawEdge(from, to rl.Vector2, weight float64) {
	mag := float32(math.Abs(weight))
	thickness := min(max(mag*1.5, 0.5), 3)

	color := ColorEdgePositive
	if weight < 0 {
		color = ColorEdgeNegative
	}
	color.A = uint8(min(40+mag*40, 150))

	rl.DrawLineEx(from, to, thickness, color)
}

// activationColor maps negative to blue, zero to gray and positive to red.
func activationColor(activation float64) rl.Color {
	t := min(math.Abs(activation), 1)
	target := ColorNodePositive
	if activation < 0 {
		target = ColorNodeNegative
	}
	lerp := func(to uint8) uint8 { return uint8(60 + t*(float64(to)-60)) }
	return rl.Color{R: lerp(target.R), G: lerp(target.G), B: lerp(target.B), A: 255}
}

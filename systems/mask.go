package systems

import (
	"image"
	"math"
)

// Mask is a 1-bit occupancy bitmap of a silhouette, one bit per pixel.
type Mask struct {
	w, h  int
	words int // uint64 words per row
	bits  []uint64
}

// NewMask creates an empty mask.
func NewMask(w, h int) *Mask {
	words := (w + 63) / 64
	return &Mask{w: w, h: h, words: words, bits: make([]uint64, words*h)}
}

// RectMask returns a fully opaque w×h mask.
func RectMask(w, h int) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y)
		}
	}
	return m
}

// EllipseMask returns the ellipse inscribed in a w×h box.
func EllipseMask(w, h int) *Mask {
	m := NewMask(w, h)
	rx, ry := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Sample pixel centers
			nx := (float64(x) + 0.5 - rx) / rx
			ny := (float64(y) + 0.5 - ry) / ry
			if nx*nx+ny*ny <= 1 {
				m.Set(x, y)
			}
		}
	}
	return m
}

// MaskFromImage marks every pixel whose alpha exceeds threshold (0-255).
func MaskFromImage(img image.Image, threshold uint8) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	limit := uint32(threshold) * 0x101 // RGBA() alpha is 16-bit
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > limit {
				m.Set(x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	return m
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.w }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.h }

// Set marks pixel (x, y) as occupied. Out-of-range pixels are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	m.bits[y*m.words+x/64] |= 1 << uint(x%64)
}

// Get reports whether pixel (x, y) is occupied.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.bits[y*m.words+x/64]&(1<<uint(x%64)) != 0
}

// Count returns the number of occupied pixels.
func (m *Mask) Count() int {
	n := 0
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if m.Get(x, y) {
				n++
			}
		}
	}
	return n
}

// Overlap reports whether other, placed with its origin at (dx, dy) in this
// mask's coordinates, shares any occupied pixel with this mask.
func (m *Mask) Overlap(other *Mask, dx, dy int) bool {
	x0 := max(0, dx)
	y0 := max(0, dy)
	x1 := min(m.w, dx+other.w)
	y1 := min(m.h, dy+other.h)
	if x0 >= x1 || y0 >= y1 {
		return false
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if m.Get(x, y) && other.Get(x-dx, y-dy) {
				return true
			}
		}
	}
	return false
}

// roundOffset converts a world-space offset to whole pixels.
func roundOffset(v float64) int {
	return int(math.Round(v))
}

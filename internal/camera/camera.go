// Package camera maps window pixels onto world cells.
package camera

import (
	"math"

	"sparse-ca/internal/grid"
)

const (
	// MinScale is the closest zoom: one cell covers twenty pixels.
	MinScale = 0.05
	// MaxScale is the farthest zoom: one cell per pixel.
	MaxScale = 1.0
	// DefaultScale is the zoom a fresh camera starts with.
	DefaultScale = 0.1
)

// Camera is a comparable value; two equal cameras produce identical tables.
type Camera struct {
	Center grid.WorldPos
	// SubX and SubY hold the fractional part of the center, in cells.
	SubX, SubY float64
	// Scale is cells per screen pixel.
	Scale float64
}

// New returns a camera centered on c at the default scale.
func New(c grid.WorldPos) Camera {
	return Camera{Center: c, Scale: DefaultScale}
}

// RoundHalfAway rounds to the nearest integer, ties away from zero.
func RoundHalfAway(v float64) int64 {
	return int64(math.Round(v))
}

// Span counts the cells from first to last inclusive, following int64
// wraparound, capped at limit.
func Span(first, last int64, limit int) int {
	n := uint64(last-first) + 1
	if n == 0 || n > uint64(limit) {
		return max(limit, 0)
	}
	return int(n)
}

// ScreenToWorld converts a center-relative pixel offset to a world cell.
func (c Camera) ScreenToWorld(sx, sy int64) grid.WorldPos {
	x := RoundHalfAway(float64(sx)*c.Scale + c.SubX)
	y := RoundHalfAway(float64(sy)*c.Scale + c.SubY)
	return c.Center.Add(x, y)
}

// Pan moves the view by a drag of (dx, dy) screen pixels. Dragging right
// moves the world right, so the center moves left.
func (c *Camera) Pan(dx, dy float64) {
	c.SubX -= dx * c.Scale
	c.SubY -= dy * c.Scale
	ix, fx := math.Modf(c.SubX)
	iy, fy := math.Modf(c.SubY)
	c.Center = c.Center.Add(int64(ix), int64(iy))
	c.SubX, c.SubY = fx, fy
}

// Zoom applies a scroll delta. Positive deltas zoom in.
func (c *Camera) Zoom(delta float64) {
	switch {
	case delta > 0:
		c.Scale -= (c.Scale - MinScale) * 0.1 * delta
	case delta < 0:
		c.Scale -= (MaxScale - c.Scale) * 0.1 * delta
	}
	c.Scale = min(MaxScale, max(c.Scale, MinScale))
}

// ScreenOffset converts window pixel coordinates into the center-relative
// offsets used by ScreenToWorld and Table.
func ScreenOffset(px, py, w, h int) (int64, int64) {
	return int64(px - w/2), int64(py - h/2)
}

// CellRect returns the window-pixel rectangle covered by p in a w×h viewport.
// Edges are fractional; the half-away rounding of negative offsets can shift
// a boundary by one pixel.
func (c Camera) CellRect(p grid.WorldPos, w, h int) (x0, y0, x1, y1 float64) {
	kx := float64(p.X - c.Center.X)
	ky := float64(p.Y - c.Center.Y)
	hx, hy := float64(w/2), float64(h/2)
	x0 = (kx-0.5-c.SubX)/c.Scale + hx
	x1 = (kx+0.5-c.SubX)/c.Scale + hx
	y0 = (ky-0.5-c.SubY)/c.Scale + hy
	y1 = (ky+0.5-c.SubY)/c.Scale + hy
	return x0, y0, x1, y1
}

// Table caches the world cell under every pixel of a w×h viewport, row-major.
type Table struct {
	w, h  int
	cam   Camera
	valid bool
	cells []grid.WorldPos
}

// Update rebuilds the table when the camera or viewport size changed and
// reports whether it did.
func (t *Table) Update(c Camera, w, h int) bool {
	if t.valid && t.cam == c && t.w == w && t.h == h {
		return false
	}
	n := max(w, 0) * max(h, 0)
	if cap(t.cells) < n {
		t.cells = make([]grid.WorldPos, n)
	}
	t.cells = t.cells[:n]
	t.w, t.h, t.cam, t.valid = w, h, c, true

	i := 0
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			sx, sy := ScreenOffset(px, py, w, h)
			t.cells[i] = c.ScreenToWorld(sx, sy)
			i++
		}
	}
	return true
}

// Invalidate forces the next Update to rebuild.
func (t *Table) Invalidate() { t.valid = false }

// Cells returns the row-major pixel table.
func (t *Table) Cells() []grid.WorldPos { return t.cells }

// Size returns the viewport the table was built for.
func (t *Table) Size() (int, int) { return t.w, t.h }

// At returns the cell under pixel (px, py).
func (t *Table) At(px, py int) grid.WorldPos { return t.cells[py*t.w+px] }

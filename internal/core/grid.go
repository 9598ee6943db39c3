package core

// ByteGrid is a row-major w×h plane of bytes. The renderer samples one
// material per screen pixel into it.
type ByteGrid struct {
	W, H int
	data []uint8
}

// NewByteGrid allocates a grid; non-positive dimensions become 1.
func NewByteGrid(w, h int) *ByteGrid {
	g := &ByteGrid{}
	g.Resize(w, h)
	return g
}

// Cells is the backing slice, row-major.
func (g *ByteGrid) Cells() []uint8 { return g.data }

// Index maps (x, y) to its offset in Cells.
func (g *ByteGrid) Index(x, y int) int { return y*g.W + x }

// At returns the value at (x, y).
func (g *ByteGrid) At(x, y int) uint8 { return g.data[g.Index(x, y)] }

// Resize changes the dimensions, reusing the backing array when it is large
// enough, and zeroes the grid. It reports whether the dimensions changed.
func (g *ByteGrid) Resize(w, h int) bool {
	w, h = max(w, 1), max(h, 1)
	if w == g.W && h == g.H && g.data != nil {
		return false
	}
	if n := w * h; cap(g.data) >= n {
		g.data = g.data[:n]
		g.Clear()
	} else {
		g.data = make([]uint8, n)
	}
	g.W, g.H = w, h
	return true
}

// Clear zeroes every cell.
func (g *ByteGrid) Clear() { clear(g.data) }

// Package render turns the active cell store into pixels.
package render

import (
	"strings"

	"sparse-ca/internal/camera"
	"sparse-ca/internal/core"
	"sparse-ca/internal/grid"
)

// LookupFunc reads one cell. Engine.Lookup and Controller.Lookup satisfy it.
type LookupFunc func(grid.WorldPos) (grid.Material, bool)

// Sample writes the material under every pixel of tab into frame, resizing
// frame to match. Runs of pixels that map to the same cell reuse one lookup.
// It returns the number of lookups performed.
func Sample(frame *core.ByteGrid, tab *camera.Table, lookup LookupFunc) int {
	w, h := tab.Size()
	frame.Resize(w, h)
	cells := tab.Cells()
	out := frame.Cells()
	if len(cells) == 0 {
		return 0
	}

	lookups := 1
	m, _ := lookup(cells[0])
	out[0] = uint8(m)
	for i := 1; i < len(cells); i++ {
		if cells[i] != cells[i-1] {
			m, _ = lookup(cells[i])
			lookups++
		}
		out[i] = uint8(m)
	}
	return lookups
}

// Fill samples tab into frame and converts it to RGBA in buf, which must hold
// four bytes per pixel.
func Fill(buf []byte, frame *core.ByteGrid, tab *camera.Table, lookup LookupFunc, palette Palette) int {
	n := Sample(frame, tab, lookup)
	fillPaletteRGBA(buf, frame.Cells(), palette)
	return n
}

var glyphs = [...]byte{grid.Empty: '.', grid.Sand: ':', grid.Brick: '#', grid.Life: 'O'}

// Text renders a sampled frame as one line of glyphs per row.
func Text(frame *core.ByteGrid) string {
	var b strings.Builder
	b.Grow((frame.W + 1) * frame.H)
	for y := 0; y < frame.H; y++ {
		for x := 0; x < frame.W; x++ {
			c := frame.At(x, y)
			if int(c) < len(glyphs) {
				b.WriteByte(glyphs[c])
			} else {
				b.WriteByte('?')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

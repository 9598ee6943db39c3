package render

import (
	"image/color"

	"sparse-ca/internal/grid"
)

// Palette maps each material to a pixel colour, indexed by grid.Material.
type Palette []color.RGBA

// DefaultPalette is dark grey background, yellow life, tan sand and red brick.
func DefaultPalette() Palette {
	p := make(Palette, grid.NumMaterials)
	p[grid.Empty] = color.RGBA{R: 22, G: 22, B: 22, A: 255}
	p[grid.Sand] = color.RGBA{R: 194, G: 178, B: 128, A: 255}
	p[grid.Brick] = color.RGBA{R: 150, G: 60, B: 45, A: 255}
	p[grid.Life] = color.RGBA{R: 127, G: 127, B: 0, A: 255}
	return p
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette Palette) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

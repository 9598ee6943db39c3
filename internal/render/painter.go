//go:build ebiten

package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"sparse-ca/internal/camera"
	"sparse-ca/internal/core"
)

// GridPainter samples the visible cells into a single RGBA image, one pixel
// per screen pixel.
type GridPainter struct {
	w, h    int
	img     *ebiten.Image
	buf     []byte
	frame   *core.ByteGrid
	palette Palette
}

// NewGridPainter allocates a painter for a w*h viewport.
func NewGridPainter(w, h int, palette Palette) *GridPainter {
	gp := &GridPainter{palette: palette, frame: core.NewByteGrid(w, h)}
	gp.resize(w, h)
	return gp
}

func (gp *GridPainter) resize(w, h int) {
	if w == gp.w && h == gp.h && gp.img != nil {
		return
	}
	if gp.img != nil {
		gp.img.Dispose()
	}
	gp.w, gp.h = w, h
	gp.buf = make([]byte, 4*w*h)
	gp.img = ebiten.NewImage(w, h)
}

// Blit fills the image from lookup and draws it onto dst. It returns the
// number of lookups performed.
func (gp *GridPainter) Blit(dst *ebiten.Image, tab *camera.Table, lookup LookupFunc) int {
	w, h := tab.Size()
	if w <= 0 || h <= 0 {
		return 0
	}
	gp.resize(w, h)
	n := Fill(gp.buf, gp.frame, tab, lookup, gp.palette)
	gp.img.WritePixels(gp.buf)
	dst.DrawImage(gp.img, &ebiten.DrawImageOptions{})
	return n
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }

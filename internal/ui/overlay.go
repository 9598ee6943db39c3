//go:build ebiten

package ui

import (
	"image/color"

	"sparse-ca/internal/camera"
	"sparse-ca/internal/grid"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// minGridSpan is the cell size in pixels below which grid lines are hidden.
const minGridSpan = 8

// Overlay draws the hovered cell outline and optional cell grid lines on top
// of the grid view.
type Overlay struct {
	showGrid  bool
	showHover bool
}

// NewOverlay constructs a new overlay instance.
func NewOverlay() *Overlay {
	return &Overlay{showHover: true}
}

// Update toggles the overlays: G for grid lines, H for the hover outline.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		o.showGrid = !o.showGrid
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		o.showHover = !o.showHover
	}
}

// Draw renders the overlay for a w×h grid view.
func (o *Overlay) Draw(screen *ebiten.Image, cam camera.Camera, w, h int, brush grid.Material) {
	if w <= 0 || h <= 0 || cam.Scale <= 0 {
		return
	}
	if o.showGrid && 1/cam.Scale >= minGridSpan {
		o.drawGrid(screen, cam, w, h)
	}
	if o.showHover {
		mx, my := ebiten.CursorPosition()
		if mx < 0 || my < 0 || mx >= w || my >= h {
			return
		}
		sx, sy := camera.ScreenOffset(mx, my, w, h)
		pos := cam.ScreenToWorld(sx, sy)
		x0, y0, x1, y1 := cam.CellRect(pos, w, h)
		vector.StrokeRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), 1, brushColor(brush), false)
	}
}

func (o *Overlay) drawGrid(screen *ebiten.Image, cam camera.Camera, w, h int) {
	col := color.RGBA{R: 48, G: 48, B: 52, A: 255}
	lox, loy := camera.ScreenOffset(0, 0, w, h)
	hix, hiy := camera.ScreenOffset(w-1, h-1, w, h)
	first := cam.ScreenToWorld(lox, loy)
	last := cam.ScreenToWorld(hix, hiy)
	for i, n := 0, camera.Span(first.X, last.X, w+1); i < n; i++ {
		x0, _, _, _ := cam.CellRect(grid.WorldPos{X: first.X + int64(i), Y: first.Y}, w, h)
		vector.StrokeLine(screen, float32(x0), 0, float32(x0), float32(h), 1, col, false)
	}
	for i, n := 0, camera.Span(first.Y, last.Y, h+1); i < n; i++ {
		_, y0, _, _ := cam.CellRect(grid.WorldPos{X: first.X, Y: first.Y + int64(i)}, w, h)
		vector.StrokeLine(screen, 0, float32(y0), float32(w), float32(y0), 1, col, false)
	}
}

func brushColor(m grid.Material) color.RGBA {
	switch m {
	case grid.Sand:
		return color.RGBA{R: 230, G: 210, B: 150, A: 255}
	case grid.Brick:
		return color.RGBA{R: 210, G: 90, B: 70, A: 255}
	default:
		return color.RGBA{R: 240, G: 240, B: 120, A: 255}
	}
}

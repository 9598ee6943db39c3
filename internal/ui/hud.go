//go:build ebiten

package ui

import (
	"image"
	"image/color"

	"sparse-ca/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// ParameterSource feeds the HUD. It may also implement
// core.ParameterControlsProvider and the setter interfaces.
type ParameterSource interface {
	Parameters() core.ParameterSnapshot
}

var (
	panelColor = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	titleColor = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	labelColor = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	dimColor   = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	buttonOn   = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	buttonOff  = color.RGBA{R: 32, G: 34, B: 40, A: 255}
)

// HUD renders the parameter panel to the right of the grid view.
type HUD struct {
	src    ParameterSource
	title  string
	layout panelLayout
	ints   core.IntParameterSetter
	floats core.FloatParameterSetter

	snapshot core.ParameterSnapshot
	offsetX  int
	panel    *ebiten.Image
}

// NewHUD constructs a HUD of the given width for src.
func NewHUD(src ParameterSource, width int, title string) *HUD {
	if width < 0 {
		width = 0
	}
	h := &HUD{src: src, title: title}
	var controls []core.ParameterControl
	if p, ok := src.(core.ParameterControlsProvider); ok {
		controls = p.ParameterControls()
	}
	h.layout = newPanelLayout(width, controls)
	h.ints, _ = src.(core.IntParameterSetter)
	h.floats, _ = src.(core.FloatParameterSetter)
	return h
}

// Width returns the panel width.
func (h *HUD) Width() int {
	if h == nil {
		return 0
	}
	return h.layout.width
}

// Update refreshes the snapshot and handles clicks on the +/- buttons. The
// panel starts at window x offsetX.
func (h *HUD) Update(offsetX int) {
	if h.Width() == 0 {
		return
	}
	h.offsetX = offsetX
	h.snapshot = h.src.Parameters()
	h.layout.refresh(h.snapshot)

	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	if row, dir, ok := h.layout.hit(mx-offsetX, my); ok {
		h.layout.apply(row, dir, h.ints, h.floats)
	}
}

// Draw paints the panel at offsetX, height pixels tall.
func (h *HUD) Draw(screen *ebiten.Image, offsetX, height int) {
	w := h.Width()
	if w == 0 || height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		if h.panel != nil {
			h.panel.Dispose()
		}
		h.panel = ebiten.NewImage(w, height)
	}
	h.panel.Fill(panelColor)

	face := basicfont.Face7x13
	text.Draw(h.panel, h.title, face, panelPadding, panelPadding+headerBaseline, titleColor)
	for i := range h.layout.rows {
		r := &h.layout.rows[i]
		y := r.top + labelBaseline
		text.Draw(h.panel, r.control.Label, face, panelPadding, y, labelColor)
		col := labelColor
		if !r.live {
			col = dimColor
		}
		b := text.BoundString(face, r.value)
		text.Draw(h.panel, r.value, face, r.minus.Min.X-buttonGap-b.Dx(), y, col)
		h.drawButton(r.minus, "-", adjustable(r, -1, h.ints, h.floats))
		h.drawButton(r.plus, "+", adjustable(r, 1, h.ints, h.floats))
	}
	h.drawStats(height)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

// drawStats lists every snapshot group below the controls.
func (h *HUD) drawStats(height int) {
	face := basicfont.Face7x13
	right := h.layout.width - panelPadding
	y := h.layout.statsTop()
	for _, g := range h.snapshot.Groups {
		if y > height {
			return
		}
		text.Draw(h.panel, g.Name, face, panelPadding, y, titleColor)
		y += statLine
		for _, p := range g.Params {
			b := text.BoundString(face, p.Value)
			text.Draw(h.panel, p.Label, face, panelPadding, y, dimColor)
			text.Draw(h.panel, p.Value, face, right-b.Dx(), y, labelColor)
			y += statLine
		}
		y += statLine / 2
	}
}

func (h *HUD) drawButton(r image.Rectangle, label string, enabled bool) {
	bg, fg := buttonOn, labelColor
	if !enabled {
		bg, fg = buttonOff, dimColor
	}
	vector.DrawFilledRect(h.panel, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), bg, false)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	text.Draw(h.panel, label, face, r.Min.X+(r.Dx()-b.Dx())/2, r.Min.Y+(r.Dy()+b.Dy())/2, fg)
}

//go:build ebiten

package app

import (
	"time"

	"sparse-ca/internal/input"
	"sparse-ca/internal/render"
	"sparse-ca/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// panStep is the arrow-key pan per frame, in pixels.
const panStep = 8

var keyMap = map[ebiten.Key]input.Key{
	ebiten.KeySpace:  input.KeyPause,
	ebiten.KeyN:      input.KeyStep,
	ebiten.KeyC:      input.KeyClear,
	ebiten.KeyR:      input.KeyReset,
	ebiten.KeyQ:      input.KeyQuit,
	ebiten.KeyEscape: input.KeyQuit,
	ebiten.KeyDigit1: input.KeyBrushSand,
	ebiten.KeyDigit2: input.KeyBrushBrick,
	ebiten.KeyDigit3: input.KeyBrushLife,
	ebiten.KeyEqual:  input.KeyFaster,
	ebiten.KeyMinus:  input.KeySlower,
}

// Game adapts a Session to the ebiten.Game interface.
type Game struct {
	ses     *Session
	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay

	w, h int

	dragging     bool
	lastX, lastY int
	pressed      []input.Key
}

// New constructs a Game with a w×h grid view and the HUD to its right.
func New(ses *Session, w, h, hudWidth int) *Game {
	return &Game{
		ses:     ses,
		painter: render.NewGridPainter(w, h, render.DefaultPalette()),
		hud:     ui.NewHUD(ses, hudWidth, "sparse-ca"),
		overlay: ui.NewOverlay(),
		w:       w,
		h:       h,
	}
}

// Update polls ebiten input and hands it to the session.
func (g *Game) Update() error {
	f := g.poll()
	res := g.ses.Update(f)
	if res.Quit {
		return ebiten.Termination
	}
	g.overlay.Update()
	g.hud.Update(g.w)
	return nil
}

func (g *Game) poll() input.Frame {
	mx, my := ebiten.CursorPosition()
	f := input.Frame{
		Now:     time.Now(),
		Width:   g.w,
		Height:  g.h,
		CursorX: mx,
		CursorY: my,
		Left:    ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Right:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
	}
	_, f.Scroll = ebiten.Wheel()

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		if g.dragging {
			f.DragX = float64(mx - g.lastX)
			f.DragY = float64(my - g.lastY)
		}
		g.dragging = true
		g.lastX, g.lastY = mx, my
	} else {
		g.dragging = false
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		f.DragX += panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		f.DragX -= panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		f.DragY += panStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		f.DragY -= panStep
	}

	g.pressed = g.pressed[:0]
	for k, action := range keyMap {
		if inpututil.IsKeyJustPressed(k) {
			g.pressed = append(g.pressed, action)
		}
	}
	f.Pressed = g.pressed
	return f
}

// Draw renders the visible cells, the overlay and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	tab := g.ses.Table(g.w, g.h)
	g.painter.Blit(screen, tab, g.ses.Controller().Lookup)
	g.overlay.Draw(screen, g.ses.Camera(), g.w, g.h, g.ses.Input().Brush)
	g.hud.Draw(screen, g.w, g.h)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w + g.hud.Width(), g.h
}

// Package input turns one frame of polled input into grid edits, camera
// movement and generation requests.
package input

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sparse-ca/internal/camera"
	"sparse-ca/internal/core"
	"sparse-ca/internal/engine"
	"sparse-ca/internal/grid"
	"sparse-ca/internal/logging"
)

// Key is an abstract key press; the platform layer maps real keys onto it.
type Key int

const (
	KeyPause Key = iota
	KeyStep
	KeyClear
	KeyReset
	KeyQuit
	KeyBrushSand
	KeyBrushBrick
	KeyBrushLife
	KeyFaster
	KeySlower
)

// Frame is the input polled during one frame. Coordinates are window pixels
// relative to the grid viewport.
type Frame struct {
	Now time.Time

	Width, Height    int
	CursorX, CursorY int

	// Left and Right are held mouse buttons.
	Left, Right bool
	// Scroll is the wheel delta; positive zooms in.
	Scroll float64
	// DragX and DragY are the pan drag in pixels since the previous frame.
	DragX, DragY float64

	// Pressed lists keys that went down this frame.
	Pressed []Key
}

func (f Frame) inView() bool {
	return f.CursorX >= 0 && f.CursorY >= 0 && f.CursorX < f.Width && f.CursorY < f.Height
}

// Target is the grid the handler edits and advances. *engine.Controller
// satisfies it.
type Target interface {
	Lookup(grid.WorldPos) (grid.Material, bool)
	Set(grid.WorldPos, grid.Material)
	Remove(grid.WorldPos)
	Clear()
	Advance() error
}

// Result reports what a frame changed.
type Result struct {
	CameraChanged bool
	Advanced      bool
	Reset         bool
	Quit          bool
	Painted       int
	Erased        int
}

const (
	minTick = 10 * time.Millisecond
	maxTick = 2 * time.Second
)

// Handler applies frames to a target and a camera.
type Handler struct {
	Camera *camera.Camera
	Paused bool
	Brush  grid.Material

	target Target
	timer  *core.FixedStep
	log    *slog.Logger
	busy   int
}

// NewHandler builds a handler that requests a generation every tick while
// not paused.
func NewHandler(target Target, cam *camera.Camera, tick time.Duration, log *slog.Logger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{
		Camera: cam,
		Brush:  grid.Life,
		target: target,
		timer:  core.NewFixedStep(tick),
		log:    log,
	}
}

// Tick returns the interval between generation requests.
func (h *Handler) Tick() time.Duration { return h.timer.Interval() }

// SetTick changes the interval, clamped to [10ms, 2s].
func (h *Handler) SetTick(d time.Duration) {
	h.timer.SetInterval(min(maxTick, max(minTick, d)))
}

// Dropped reports how many ticks were skipped because the worker was busy.
func (h *Handler) Dropped() int { return h.busy }

// Handle applies one frame.
func (h *Handler) Handle(f Frame) Result {
	var res Result
	step := false
	for _, k := range f.Pressed {
		switch k {
		case KeyPause:
			h.Paused = !h.Paused
		case KeyStep:
			step = true
		case KeyClear:
			h.target.Clear()
		case KeyReset:
			res.Reset = true
		case KeyQuit:
			res.Quit = true
		case KeyBrushSand:
			h.Brush = grid.Sand
		case KeyBrushBrick:
			h.Brush = grid.Brick
		case KeyBrushLife:
			h.Brush = grid.Life
		case KeyFaster:
			h.SetTick(h.Tick() / 2)
		case KeySlower:
			h.SetTick(h.Tick() * 2)
		}
	}

	before := *h.Camera
	if f.Scroll != 0 {
		h.Camera.Zoom(f.Scroll)
	}
	if f.DragX != 0 || f.DragY != 0 {
		h.Camera.Pan(f.DragX, f.DragY)
	}
	res.CameraChanged = *h.Camera != before

	if f.inView() && (f.Left || f.Right) {
		sx, sy := camera.ScreenOffset(f.CursorX, f.CursorY, f.Width, f.Height)
		pos := h.Camera.ScreenToWorld(sx, sy)
		_, present := h.target.Lookup(pos)
		switch {
		case f.Left && !present:
			h.target.Set(pos, h.Brush)
			res.Painted++
		case f.Right && !f.Left && present:
			h.target.Remove(pos)
			res.Erased++
		}
	}

	due := !h.Paused && h.timer.ShouldStepAt(f.Now)
	if step || due {
		switch err := h.target.Advance(); {
		case err == nil:
			res.Advanced = true
		case errors.Is(err, engine.ErrBusy):
			h.busy++
			h.log.Log(context.Background(), logging.LevelTrace, "tick dropped, worker busy")
		default:
			h.log.Warn("advance failed", "error", err)
		}
	}
	return res
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sparse-ca/internal/camera"
	"sparse-ca/internal/config"
	"sparse-ca/internal/core"
	"sparse-ca/internal/engine"
	"sparse-ca/internal/grid"
	"sparse-ca/internal/input"
	"sparse-ca/internal/logging"
	"sparse-ca/internal/patterns"
)

// Session is the platform-independent state of an interactive run: the
// engine and its worker, the camera and the input handler. The ebiten Game
// drives it once per frame; tests drive it directly.
type Session struct {
	cfg   *config.Config
	log   *slog.Logger
	eng   *engine.Engine
	ctrl  *engine.Controller
	cam   camera.Camera
	table camera.Table
	input *input.Handler

	frames int
}

// NewSession builds the engine, seeds the configured pattern and starts the
// worker.
func NewSession(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = logging.Discard()
	}
	ecfg, err := cfg.EngineConfig(log)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(ecfg)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	s := &Session{cfg: cfg, log: log, eng: eng}
	s.cam = camera.New(grid.WorldPos{})
	s.cam.Scale = cfg.Window.Scale
	if err := s.seed(eng); err != nil {
		return nil, err
	}
	s.ctrl = engine.Start(ctx, eng)
	s.input = input.NewHandler(s.ctrl, &s.cam, cfg.Sim.Tick, log)
	s.input.Paused = cfg.Sim.Paused
	return s, nil
}

func (s *Session) seed(dst patterns.Setter) error {
	if s.cfg.Sim.Pattern == "" {
		return nil
	}
	p, err := patterns.Lookup(s.cfg.Sim.Pattern)
	if err != nil {
		return err
	}
	n := patterns.Stamp(dst, p, grid.WorldPos{}, s.cfg.Sim.Seed)
	s.log.Info("seeded", "pattern", p.Name, "cells", n, "seed", s.cfg.Sim.Seed)
	return nil
}

// Reset clears the grid and stamps the configured pattern again. While a
// generation is in flight both edits are queued behind it.
func (s *Session) Reset() {
	s.ctrl.Clear()
	if err := s.seed(s.ctrl); err != nil {
		s.log.Warn("reset failed", "error", err)
	}
}

// Update publishes a finished generation and applies one frame of input.
func (s *Session) Update(f input.Frame) input.Result {
	s.frames++
	s.ctrl.Poll()
	res := s.input.Handle(f)
	if res.Reset {
		s.Reset()
	}
	if res.CameraChanged {
		s.table.Invalidate()
	}
	return res
}

// Table returns the pixel table for a w×h viewport, rebuilding it when the
// camera or size changed.
func (s *Session) Table(w, h int) *camera.Table {
	s.table.Update(s.cam, w, h)
	return &s.table
}

// Controller exposes the async controller.
func (s *Session) Controller() *engine.Controller { return s.ctrl }

// Camera returns the current camera.
func (s *Session) Camera() camera.Camera { return s.cam }

// Input exposes the input handler.
func (s *Session) Input() *input.Handler { return s.input }

// Close stops the worker.
func (s *Session) Close() error {
	return s.ctrl.Shutdown()
}

// Parameters describes the session for the HUD.
func (s *Session) Parameters() core.ParameterSnapshot {
	state := "running"
	if s.input.Paused {
		state = "paused"
	}
	view := core.ParameterSnapshot{Groups: []core.ParameterGroup{{
		Name: "View",
		Params: []core.Parameter{
			core.TextParam("state", "State", state),
			core.TextParam("brush", "Brush", s.input.Brush.String()),
			core.IntParam("tick_ms", "Tick (ms)", int(s.input.Tick()/time.Millisecond)),
			core.FloatParam("scale", "Scale", s.cam.Scale, 2),
			core.TextParam("center", "Center", s.cam.Center.String()),
			core.IntParam("dropped", "Dropped ticks", s.input.Dropped()),
			core.IntParam("pending", "Queued edits", s.ctrl.Pending()),
		},
	}}}
	return s.ctrl.Parameters().Merge(view)
}

// ParameterControls lists the HUD-adjustable values.
func (s *Session) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "tick_ms", Label: "Tick (ms)", Type: core.ParamTypeInt, Step: 10, Min: 10, Max: 2000, HasMin: true, HasMax: true},
		{Key: "scale", Label: "Scale", Type: core.ParamTypeFloat, Step: 0.05, Min: camera.MinScale, Max: camera.MaxScale, HasMin: true, HasMax: true},
	}
}

// SetIntParameter applies a HUD adjustment.
func (s *Session) SetIntParameter(key string, value int) bool {
	if key != "tick_ms" {
		return false
	}
	s.input.SetTick(time.Duration(value) * time.Millisecond)
	return true
}

// SetFloatParameter applies a HUD adjustment.
func (s *Session) SetFloatParameter(key string, value float64) bool {
	if key != "scale" {
		return false
	}
	s.cam.Scale = min(camera.MaxScale, max(camera.MinScale, value))
	s.table.Invalidate()
	return true
}

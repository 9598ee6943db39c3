package app

import (
	"context"
	"testing"
	"time"

	"sparse-ca/internal/config"
	"sparse-ca/internal/grid"
	"sparse-ca/internal/input"
	"sparse-ca/internal/life"
)

func testConfig(pattern string) *config.Config {
	cfg := config.Default()
	cfg.Engine.Buckets = 256
	cfg.Engine.ShutdownTimeout = 2 * time.Second
	cfg.Sim.Pattern = pattern
	return cfg
}

func newTestSession(t *testing.T, pattern string) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), testConfig(pattern), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestSessionSeedsPattern(t *testing.T) {
	s := newTestSession(t, "block")
	for _, p := range []grid.WorldPos{{-1, -1}, {0, -1}, {-1, 0}, {0, 0}} {
		if m, _ := s.Controller().Lookup(p); m != grid.Life {
			t.Fatalf("block cell %v missing", p)
		}
	}
	if _, err := NewSession(context.Background(), testConfig("bogus"), nil); err == nil {
		t.Fatal("expected error for unknown pattern")
	}
}

func TestSessionAdvancesOnTick(t *testing.T) {
	s := newTestSession(t, "blinker")
	t0 := time.Unix(100, 0)
	if !s.Update(input.Frame{Now: t0}).Advanced {
		t.Fatal("first frame should request a generation")
	}
	if err := s.Controller().Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Controller().Generation() != 1 {
		t.Fatalf("expected generation 1, got %d", s.Controller().Generation())
	}
	for _, p := range []grid.WorldPos{{0, -1}, {0, 0}, {0, 1}} {
		if _, ok := s.Controller().Lookup(p); !ok {
			t.Fatalf("vertical blinker cell %v missing", p)
		}
	}
}

func TestSessionResetRestoresPattern(t *testing.T) {
	s := newTestSession(t, "glider")
	s.Controller().Set(grid.WorldPos{X: 50, Y: 50}, grid.Brick)
	s.Update(input.Frame{Now: time.Unix(0, 0), Pressed: []input.Key{input.KeyPause, input.KeyReset}})
	if err := s.Controller().Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Controller().Lookup(grid.WorldPos{X: 50, Y: 50}); ok {
		t.Fatal("reset should clear painted cells")
	}
	if s.Controller().Active().Len() != 5 {
		t.Fatalf("expected the 5 glider cells, got %d", s.Controller().Active().Len())
	}
}

func TestSessionTableFollowsCamera(t *testing.T) {
	s := newTestSession(t, "")
	tab := s.Table(20, 10)
	before := tab.At(0, 0)
	s.Input().Paused = true
	res := s.Update(input.Frame{Now: time.Unix(0, 0), DragX: -100})
	if !res.CameraChanged {
		t.Fatal("drag should change the camera")
	}
	if s.Table(20, 10).At(0, 0) == before {
		t.Fatal("table was not rebuilt after the camera moved")
	}
}

func TestSessionParameters(t *testing.T) {
	s := newTestSession(t, "block")
	snap := s.Parameters()
	for key, want := range map[string]string{"live": "4", "tick_ms": "100", "brush": "life", "state": "running", "generation": "0"} {
		p, ok := snap.Find(key)
		if !ok || p.Value != want {
			t.Fatalf("%s = %q (%v), expected %q", key, p.Value, ok, want)
		}
	}

	if !s.SetIntParameter("tick_ms", 250) || s.Input().Tick() != 250*time.Millisecond {
		t.Fatal("tick_ms not applied")
	}
	if s.SetIntParameter("nope", 1) {
		t.Fatal("unknown key accepted")
	}
	if !s.SetFloatParameter("scale", 5) || s.Camera().Scale != 1 {
		t.Fatalf("scale should clamp to 1, got %v", s.Camera().Scale)
	}
	if len(s.ParameterControls()) != 2 {
		t.Fatal("expected two controls")
	}
}

func TestRunReportsProgress(t *testing.T) {
	s := newTestSession(t, "glider")
	var seen []uint64
	rep, err := Run(context.Background(), s.Controller(), 8, func(st life.Stats) { seen = append(seen, st.Generation) })
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 8 || seen[7] != 8 {
		t.Fatalf("unexpected callbacks %v", seen)
	}
	if rep.Stats.Generation != 8 || rep.Stats.Live != 5 || rep.Empty {
		t.Fatalf("unexpected report %+v", rep)
	}
	// The glider starts at (-1,-1)..(1,1) and moves (2,2) in 8 generations.
	if rep.Bounds != [2][2]int64{{1, 1}, {3, 3}} {
		t.Fatalf("unexpected bounds %v", rep.Bounds)
	}
	if rep.GenerationsPerSecond() <= 0 {
		t.Fatal("expected a positive rate")
	}
}

func TestRunEmptyGrid(t *testing.T) {
	s := newTestSession(t, "")
	rep, err := Run(context.Background(), s.Controller(), 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Empty || rep.Stats.Generation != 3 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sparse-ca/internal/grid"
)

var glider = []grid.WorldPos{{1, 0}, {2, 1}, {0, 2}, {1, 2}, {2, 2}}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Buckets = 256
	cfg.ShutdownTimeout = 2 * time.Second
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func sameCells(t *testing.T, got, want *grid.Store) {
	t.Helper()
	g, w := got.Positions(), want.Positions()
	if len(g) != len(w) {
		t.Fatalf("cell count %d, expected %d", len(g), len(w))
	}
	for i := range g {
		if g[i] != w[i] {
			t.Fatalf("cell %d = %v, expected %v", i, g[i], w[i])
		}
	}
}

func TestNewRejectsBadBucketCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Buckets = 1000
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for non power-of-two bucket count")
	}
}

func TestReservedEditsAreIgnored(t *testing.T) {
	e := newTestEngine(t)
	reserved := grid.WorldPos{X: grid.Sentinel, Y: 3}
	e.Set(reserved, grid.Life)
	if e.Active().Len() != 0 {
		t.Fatal("engine stored a reserved coordinate")
	}

	c := Start(context.Background(), e)
	defer c.Shutdown()
	c.Set(reserved, grid.Sand)
	if err := c.Advance(); err != nil {
		t.Fatal(err)
	}
	c.Set(reserved, grid.Brick)
	if c.Pending() != 0 {
		t.Fatal("reserved edit was queued")
	}
	if err := c.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Active().Len() != 0 {
		t.Fatal("controller stored a reserved coordinate")
	}
}

func TestStepRecyclesPreviousStore(t *testing.T) {
	e := newTestEngine(t)
	for _, p := range []grid.WorldPos{{0, 0}, {1, 0}, {2, 0}} {
		e.Set(p, grid.Life)
	}
	e.Remove(grid.WorldPos{2, 0})
	e.Set(grid.WorldPos{2, 0}, grid.Life)
	before := e.Active()

	e.Step()

	if e.Active() == before {
		t.Fatal("active store did not flip")
	}
	if before.Len() != 0 || before.Stale() || len(before.LiveList()) != 0 {
		t.Fatalf("old store not recycled: len=%d stale=%v live=%d", before.Len(), before.Stale(), len(before.LiveList()))
	}
	if e.next() != before {
		t.Fatal("old active store should become next")
	}
	if e.Active().Buckets() != before.Buckets() {
		t.Fatal("both stores must share a bucket count")
	}

	e.Step()
	if e.Active() != before {
		t.Fatal("recycled store should be reused on the following step")
	}
	want := []grid.WorldPos{{0, 0}, {1, 0}, {2, 0}}
	for _, p := range want {
		if _, ok := e.Lookup(p); !ok {
			t.Fatalf("blinker cell %v missing after two steps", p)
		}
	}
}

func TestControllerMatchesSynchronousStepping(t *testing.T) {
	ref := newTestEngine(t)
	async := newTestEngine(t)
	for _, p := range glider {
		ref.Set(p, grid.Life)
		async.Set(p, grid.Life)
	}

	c := Start(context.Background(), async)
	defer c.Shutdown()

	for i := 0; i < 12; i++ {
		ref.Step()
		if err := c.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		waitFor(t, "swap", c.Poll)
	}
	sameCells(t, async.Active(), ref.Active())
	if c.Generation() != 12 {
		t.Fatalf("expected generation 12, got %d", c.Generation())
	}
}

func TestAdvanceWhileBusyAndQueuedEdits(t *testing.T) {
	e := newTestEngine(t)
	for _, p := range []grid.WorldPos{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		e.Set(p, grid.Life)
	}

	release := make(chan struct{})
	c := newController(e)
	c.stepFn = func() {
		<-release
		e.produce()
	}
	c.start(context.Background())
	defer c.Shutdown()

	if err := c.Advance(); err != nil {
		t.Fatalf("first advance: %v", err)
	}
	waitFor(t, "processing", func() bool { return c.State() == StateProcessing })

	if err := c.Advance(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while processing, got %v", err)
	}
	if _, ok := c.Lookup(grid.WorldPos{0, 0}); !ok {
		t.Fatal("active store must stay readable while processing")
	}

	c.Set(grid.WorldPos{10, 10}, grid.Brick)
	c.Remove(grid.WorldPos{0, 0})
	if c.Pending() != 2 {
		t.Fatalf("expected 2 queued edits, got %d", c.Pending())
	}
	if _, ok := c.Lookup(grid.WorldPos{10, 10}); ok {
		t.Fatal("edit applied while worker was processing")
	}

	close(release)
	waitFor(t, "finished", c.SwapPending)
	if err := c.Advance(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy before the swap is consumed, got %v", err)
	}
	if !c.Poll() {
		t.Fatal("expected Poll to publish")
	}
	if c.State() != StateIdle || c.Pending() != 0 {
		t.Fatalf("expected idle with no pending edits, got %v / %d", c.State(), c.Pending())
	}
	if m, _ := c.Lookup(grid.WorldPos{10, 10}); m != grid.Brick {
		t.Fatal("queued paint was not applied after the swap")
	}
	if _, ok := c.Lookup(grid.WorldPos{0, 0}); ok {
		t.Fatal("queued removal was not applied after the swap")
	}

	c.Set(grid.WorldPos{20, 20}, grid.Sand)
	if m, _ := c.Lookup(grid.WorldPos{20, 20}); m != grid.Sand {
		t.Fatal("edit while idle should apply immediately")
	}
}

func TestConcurrentAdvanceNeverCorrupts(t *testing.T) {
	ref := newTestEngine(t)
	e := newTestEngine(t)
	seed := append([]grid.WorldPos{{10, 10}, {11, 10}, {12, 10}}, glider...)
	for _, p := range seed {
		ref.Set(p, grid.Life)
		e.Set(p, grid.Life)
	}

	c := Start(context.Background(), e)
	defer c.Shutdown()

	var stop atomic.Bool
	var accepted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				if err := c.Advance(); err == nil {
					accepted.Add(1)
				}
			}
		}()
	}

	for c.Generation() < 200 {
		c.Poll()
		c.Lookup(grid.WorldPos{1, 1})
	}
	stop.Store(true)
	wg.Wait()
	waitFor(t, "drain", func() bool {
		c.Poll()
		return c.State() == StateIdle
	})

	if got := int64(c.Generation()); got != accepted.Load() {
		t.Fatalf("published %d generations, accepted %d advances", got, accepted.Load())
	}
	for i := uint64(0); i < c.Generation(); i++ {
		ref.Step()
	}
	sameCells(t, e.Active(), ref.Active())
	seen := map[grid.WorldPos]bool{}
	for _, p := range e.Active().LiveList() {
		if seen[p] {
			t.Fatalf("duplicate %v in live list", p)
		}
		seen[p] = true
	}
}

func TestShutdownStopsWorker(t *testing.T) {
	e := newTestEngine(t)
	c := Start(context.Background(), e)
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := c.Advance(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after shutdown, got %v", err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatalf("second Shutdown should be a no-op, got %v", err)
	}
}

func TestShutdownTimesOutOnStuckWorker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Buckets = 64
	cfg.ShutdownTimeout = 20 * time.Millisecond
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	release := make(chan struct{})
	defer close(release)
	c := newController(e)
	c.stepFn = func() { <-release }
	c.start(context.Background())

	if err := c.Advance(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "processing", func() bool { return c.State() == StateProcessing })
	if err := c.Shutdown(); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("expected ErrShutdownTimeout, got %v", err)
	}
}

func TestParametersReportEngineState(t *testing.T) {
	e := newTestEngine(t)
	e.Set(grid.WorldPos{0, 0}, grid.Life)
	snap := e.Parameters()
	found := map[string]string{}
	for _, g := range snap.Groups {
		for _, p := range g.Params {
			found[p.Key] = p.Value
		}
	}
	if found["buckets"] != "256" || found["live"] != "1" || found["generation"] != "0" {
		t.Fatalf("unexpected parameters: %v", found)
	}
}

func TestWaitPublishesGeneration(t *testing.T) {
	e := newTestEngine(t)
	for _, p := range glider {
		e.Set(p, grid.Life)
	}
	c := Start(context.Background(), e)
	defer c.Shutdown()

	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("Wait with nothing in flight: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := c.Advance(); err != nil {
			t.Fatal(err)
		}
		if err := c.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if c.Generation() != 4 || c.State() != StateIdle {
		t.Fatalf("expected idle at generation 4, got %v at %d", c.State(), c.Generation())
	}
	for _, p := range glider {
		if _, ok := c.Lookup(p.Add(1, 1)); !ok {
			t.Fatalf("glider cell %v missing", p.Add(1, 1))
		}
	}
	if p, ok := c.Parameters().Find("generation"); !ok || p.Value != "4" {
		t.Fatalf("unexpected generation parameter %+v", p)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	e := newTestEngine(t)
	release := make(chan struct{})
	defer close(release)
	c := newController(e)
	c.stepFn = func() { <-release }
	c.start(context.Background())

	if err := c.Advance(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

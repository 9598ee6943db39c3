package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"sparse-ca/internal/core"
	"sparse-ca/internal/grid"
	"sparse-ca/internal/life"
)

var (
	// ErrBusy is returned by Advance when the previous generation has not been
	// consumed yet.
	ErrBusy = errors.New("engine: generation in progress")
	// ErrClosed is returned by Advance after Shutdown.
	ErrClosed = errors.New("engine: controller shut down")
	// ErrShutdownTimeout reports that the worker did not exit within the
	// configured bound.
	ErrShutdownTimeout = errors.New("engine: worker did not stop before timeout")
)

// State is the mailbox state shared by the control loop and the worker.
type State int32

const (
	// StateIdle: nothing in flight, the control loop owns both stores.
	StateIdle State = iota
	// StateTrigger: an advance was requested and the worker has not picked it
	// up yet.
	StateTrigger
	// StateProcessing: the worker is stepping. Only reads of the active store
	// are allowed on the control side.
	StateProcessing
	// StateFinished: the next store is complete and waiting for Poll.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTrigger:
		return "trigger"
	case StateProcessing:
		return "processing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

type edit struct {
	pos   grid.WorldPos
	mat   grid.Material
	clear bool
}

// Controller runs generations on a dedicated goroutine. Advance, Poll, the
// edit methods and Shutdown belong to a single control goroutine; Lookup may
// be called from it at any time.
type Controller struct {
	eng   *Engine
	state atomic.Int32
	wake  chan struct{}

	stepFn func()

	pending []edit
	stats   life.Stats

	// finished is signalled after every generation for Wait.
	finished chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool
}

// Start launches the worker. It stops when ctx is cancelled or Shutdown is
// called.
func Start(ctx context.Context, eng *Engine) *Controller {
	c := newController(eng)
	c.start(ctx)
	return c
}

func newController(eng *Engine) *Controller {
	c := &Controller{
		eng:      eng,
		wake:     make(chan struct{}, 1),
		finished: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	c.stepFn = eng.produce
	c.stats = eng.stats
	return c
}

func (c *Controller) start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
	c.eng.log.Debug("worker started")
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}
		if ctx.Err() != nil {
			return
		}
		if !c.state.CompareAndSwap(int32(StateTrigger), int32(StateProcessing)) {
			continue
		}
		c.stepFn()
		c.state.Store(int32(StateFinished))
		select {
		case c.finished <- struct{}{}:
		default:
		}
	}
}

// State reports the current mailbox state.
func (c *Controller) State() State { return State(c.state.Load()) }

// SwapPending reports whether a finished generation is waiting for Poll.
func (c *Controller) SwapPending() bool { return c.State() == StateFinished }

// Advance asks the worker for one generation. It fails with ErrBusy unless
// the controller is idle.
func (c *Controller) Advance() error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateTrigger)) {
		return ErrBusy
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// Poll publishes a finished generation, applies edits queued while the worker
// was busy and returns the controller to idle. It reports whether a swap
// happened.
func (c *Controller) Poll() bool {
	if c.State() != StateFinished {
		return false
	}
	c.eng.publish()
	c.stats = c.eng.stats
	for _, ed := range c.pending {
		c.apply(ed)
	}
	c.pending = c.pending[:0]
	c.state.Store(int32(StateIdle))
	return true
}

// Wait blocks until the generation in flight is finished and publishes it.
// It returns immediately when nothing is in flight.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		if c.Poll() || c.State() == StateIdle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			if c.Poll() {
				return nil
			}
			return ErrClosed
		case <-c.finished:
		}
	}
}

// Stats returns the counters of the last published generation.
func (c *Controller) Stats() life.Stats { return c.stats }

// Generation reports the number of published generations.
func (c *Controller) Generation() uint64 { return c.stats.Generation }

// Parameters describes the last published generation for the HUD.
func (c *Controller) Parameters() core.ParameterSnapshot { return c.eng.parameters(c.stats) }

// Lookup reads the active store. Safe while the worker is processing since
// the worker only reads it as well.
func (c *Controller) Lookup(p grid.WorldPos) (grid.Material, bool) { return c.eng.Lookup(p) }

// Active exposes the active store for read-only use.
func (c *Controller) Active() *grid.Store { return c.eng.Active() }

// Set paints p, immediately when idle, otherwise after the in-flight
// generation is published.
func (c *Controller) Set(p grid.WorldPos, m grid.Material) {
	if p.Reserved() {
		c.eng.log.Debug("ignoring edit at reserved coordinate", "pos", p.String())
		return
	}
	c.submit(edit{pos: p, mat: m})
}

// Remove deletes p with the same scheduling as Set.
func (c *Controller) Remove(p grid.WorldPos) { c.submit(edit{pos: p, mat: grid.Empty}) }

// Clear empties the grid with the same scheduling as Set.
func (c *Controller) Clear() { c.submit(edit{clear: true}) }

// Pending reports how many edits are queued behind the in-flight generation.
func (c *Controller) Pending() int { return len(c.pending) }

func (c *Controller) submit(ed edit) {
	if c.State() == StateIdle {
		c.apply(ed)
		return
	}
	c.pending = append(c.pending, ed)
}

func (c *Controller) apply(ed edit) {
	if ed.clear {
		c.eng.Clear()
		return
	}
	c.eng.Set(ed.pos, ed.mat)
}

// Shutdown stops the worker and waits for it to exit, up to the engine's
// shutdown timeout. A generation in flight always runs to completion first.
func (c *Controller) Shutdown() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()

	timer := time.NewTimer(c.eng.cfg.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-c.done:
		c.eng.log.Debug("worker stopped")
		return nil
	case <-timer.C:
		c.eng.log.Error("worker did not stop", "timeout", c.eng.cfg.ShutdownTimeout, "state", c.State())
		return ErrShutdownTimeout
	}
}

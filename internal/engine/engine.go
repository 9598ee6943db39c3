// Package engine owns the double-buffered cell stores and advances them, either
// synchronously (Step) or on a background worker (Controller).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"sparse-ca/internal/arena"
	"sparse-ca/internal/core"
	"sparse-ca/internal/grid"
	"sparse-ca/internal/life"
	"sparse-ca/internal/logging"
)

// Config sizes an Engine.
type Config struct {
	Buckets int
	Hasher  grid.Hasher
	Arena   arena.Config

	// ShutdownTimeout bounds how long Controller.Shutdown waits for the worker.
	ShutdownTimeout time.Duration
	// SlowStep logs generations that take longer than this at debug level.
	SlowStep time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the standard engine sizing.
func DefaultConfig() Config {
	return Config{
		Buckets:         2048,
		Hasher:          grid.MixHash,
		Arena:           arena.DefaultConfig(),
		ShutdownTimeout: 30 * time.Second,
		SlowStep:        50 * time.Millisecond,
	}
}

// Engine holds two stores of identical bucket count. One is active (read by
// the stepper, edited by the user); the other receives the next generation.
type Engine struct {
	cfg     Config
	stores  [2]*grid.Store
	active  int
	stepper *life.Stepper
	stats   life.Stats
	log     *slog.Logger
}

// New allocates both stores and the stepper.
func New(cfg Config) (*Engine, error) {
	d := DefaultConfig()
	if cfg.Buckets == 0 {
		cfg.Buckets = d.Buckets
	}
	if cfg.Hasher == nil {
		cfg.Hasher = d.Hasher
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = d.ShutdownTimeout
	}
	if cfg.SlowStep <= 0 {
		cfg.SlowStep = d.SlowStep
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	e := &Engine{cfg: cfg, log: log}
	for i := range e.stores {
		s, err := grid.NewStore(cfg.Buckets,
			grid.WithHasher(cfg.Hasher),
			grid.WithArena(cfg.Arena),
			grid.WithName("table"+strconv.Itoa(i+1)),
		)
		if err != nil {
			return nil, fmt.Errorf("creating store %d: %w", i+1, err)
		}
		e.stores[i] = s
	}
	st, err := life.NewStepper(cfg.Buckets, grid.WithHasher(cfg.Hasher), grid.WithArena(cfg.Arena))
	if err != nil {
		return nil, fmt.Errorf("creating stepper: %w", err)
	}
	e.stepper = st
	log.Debug("engine initialised", "buckets", cfg.Buckets)
	return e, nil
}

// Active returns the store currently holding the visible generation.
func (e *Engine) Active() *grid.Store { return e.stores[e.active] }

func (e *Engine) next() *grid.Store { return e.stores[1-e.active] }

// Lookup reports the material at p in the active store.
func (e *Engine) Lookup(p grid.WorldPos) (grid.Material, bool) { return e.Active().Lookup(p) }

// Set paints p in the active store. Reserved positions are ignored.
func (e *Engine) Set(p grid.WorldPos, m grid.Material) {
	if p.Reserved() {
		e.log.Debug("ignoring edit at reserved coordinate", "pos", p.String())
		return
	}
	e.Active().Set(p, m)
}

// Remove deletes p from the active store.
func (e *Engine) Remove(p grid.WorldPos) bool { return e.Active().Remove(p) }

// Clear empties the active store.
func (e *Engine) Clear() { e.Active().Clear() }

// Stats returns the counters of the last completed generation.
func (e *Engine) Stats() life.Stats { return e.stats }

// Observe forwards every generation's stats to fn.
func (e *Engine) Observe(fn life.Observer) { e.stepper.Observe(fn) }

// Step advances one generation and publishes it.
func (e *Engine) Step() {
	e.produce()
	e.publish()
}

// produce writes the next generation without touching the active store.
func (e *Engine) produce() {
	e.stepper.Step(e.Active(), e.next(), &e.stats)
	e.log.Log(context.Background(), logging.LevelTrace, "generation",
		"generation", e.stats.Generation,
		"live", e.stats.Live,
		"births", e.stats.Births,
		"deaths", e.stats.Deaths,
	)
	if e.stats.Duration > e.cfg.SlowStep {
		e.log.Debug("slow generation",
			"generation", e.stats.Generation,
			"live", e.stats.Live,
			"duration", e.stats.Duration,
			"chain_depth", e.stats.ChainDepth,
		)
	}
}

// publish recycles the old active store and makes the freshly produced store
// active.
func (e *Engine) publish() {
	e.Active().Clear()
	e.active = 1 - e.active
}

// Parameters describes the engine for the HUD. Not safe while a Controller
// worker is stepping; use Controller.Parameters then.
func (e *Engine) Parameters() core.ParameterSnapshot { return e.parameters(e.stats) }

func (e *Engine) parameters(st life.Stats) core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Generation",
			Params: []core.Parameter{
				core.Uint64Param("generation", "Generation", st.Generation),
				core.IntParam("live", "Live cells", e.Active().Len()),
				core.IntParam("births", "Births", st.Births),
				core.IntParam("deaths", "Deaths", st.Deaths),
				core.DurationParam("step_time", "Step time", st.Duration),
			},
		},
		{
			Name: "Table",
			Params: []core.Parameter{
				core.IntParam("buckets", "Buckets", e.cfg.Buckets),
				core.IntParam("chain_depth", "Chain depth", st.ChainDepth),
				core.IntParam("peak_chain_depth", "Peak chain depth", st.PeakChainDepth),
				core.IntParam("frontier", "Frontier", st.Frontier),
			},
		},
	}}
}

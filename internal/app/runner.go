package app

import (
	"context"
	"fmt"
	"time"

	"sparse-ca/internal/engine"
	"sparse-ca/internal/life"
)

// Report summarises a headless run.
type Report struct {
	Stats   life.Stats
	Elapsed time.Duration
	Bounds  [2][2]int64
	Empty   bool
}

// GenerationsPerSecond is the measured stepping rate.
func (r Report) GenerationsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Stats.Generation) / r.Elapsed.Seconds()
}

// Run advances c by n generations through the worker, waiting for each one.
// every, when set, is called after each published generation.
func Run(ctx context.Context, c *engine.Controller, n int, every func(life.Stats)) (Report, error) {
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := c.Advance(); err != nil {
			return Report{}, fmt.Errorf("generation %d: %w", i+1, err)
		}
		if err := c.Wait(ctx); err != nil {
			return Report{}, fmt.Errorf("generation %d: %w", i+1, err)
		}
		if every != nil {
			every(c.Stats())
		}
	}
	r := Report{Stats: c.Stats(), Elapsed: time.Since(start)}
	minP, maxP, ok := c.Active().Bounds()
	r.Empty = !ok
	r.Bounds = [2][2]int64{{minP.X, minP.Y}, {maxP.X, maxP.Y}}
	return r, nil
}

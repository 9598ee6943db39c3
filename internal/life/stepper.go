// Package life advances a sparse cell store by one generation.
//
// Life cells follow B3/S23 and only count Life neighbors. Brick is static.
// Sand falls toward +Y, sliding diagonally when the cell below is taken.
// Every position is written to the next store at most once; when two rules
// want the same empty cell, the first one to claim it wins.
package life

import (
	"time"

	"sparse-ca/internal/grid"
)

// Stats collects per-generation diagnostics. The stepper updates the struct it
// is handed; it keeps no counters of its own.
type Stats struct {
	Generation uint64
	Live       int
	Births     int
	Deaths     int
	Lookups    int
	Frontier   int

	// ChainDepth is the deepest bucket insertion in the last generation.
	ChainDepth int
	// PeakChainDepth is the deepest bucket insertion ever observed.
	PeakChainDepth int

	Duration time.Duration
}

// Observer is notified after every completed generation.
type Observer func(Stats)

// Stepper computes generations. It owns a scratch frontier set and must not
// be shared between goroutines.
type Stepper struct {
	frontier *grid.Store
	observer Observer
}

// NewStepper builds a stepper whose frontier set uses the given bucket count
// and store options.
func NewStepper(buckets int, opts ...grid.Option) (*Stepper, error) {
	opts = append(opts, grid.WithName("frontier"))
	f, err := grid.NewStore(buckets, opts...)
	if err != nil {
		return nil, err
	}
	return &Stepper{frontier: f}, nil
}

// Observe installs an observer. Pass nil to remove it.
func (s *Stepper) Observe(fn Observer) { s.observer = fn }

// offsetIndex maps a neighbor offset (dy+1, dx+1) to its index in
// WorldPos.Neighbors; -1 marks the center.
var offsetIndex = [3][3]int{
	{5, 0, 2},
	{6, -1, 3},
	{7, 1, 4},
}

// Step reads src and writes the next generation into dst, which must be
// empty. src is not modified.
func (s *Stepper) Step(src, dst *grid.Store, st *Stats) {
	if dst.Len() != 0 {
		panic("life: next store is not empty")
	}
	if st == nil {
		st = &Stats{}
	}
	start := time.Now()
	st.Births, st.Deaths, st.Lookups = 0, 0, 0

	src.Range(func(pos grid.WorldPos, mat grid.Material) {
		switch mat {
		case grid.Life:
			s.life(src, dst, pos, st)
		case grid.Sand:
			s.fall(src, dst, pos, st)
		case grid.Brick:
			claim(dst, pos, grid.Brick)
		}
	})

	st.Frontier = s.frontier.Len()
	s.frontier.Clear()

	st.Generation++
	st.Live = dst.Len()
	st.ChainDepth = dst.MaxDepth()
	st.PeakChainDepth = max(st.PeakChainDepth, st.ChainDepth)
	st.Duration = time.Since(start)
	if s.observer != nil {
		s.observer(*st)
	}
}

func claim(dst *grid.Store, pos grid.WorldPos, m grid.Material) bool {
	if dst.Has(pos) {
		return false
	}
	dst.Insert(pos, m)
	return true
}

func (s *Stepper) life(src, dst *grid.Store, pos grid.WorldPos, st *Stats) {
	around := pos.Neighbors()
	var state [8]grid.Material
	var present [8]bool
	alive := 0
	for i, n := range around {
		state[i], present[i] = src.Lookup(n)
		if state[i] == grid.Life {
			alive++
		}
	}
	st.Lookups += len(around)

	if alive == 2 || alive == 3 {
		claim(dst, pos, grid.Life)
	} else {
		st.Deaths++
	}

	for i, cand := range around {
		if present[i] || cand.Reserved() || s.frontier.Has(cand) {
			continue
		}
		s.frontier.Insert(cand, grid.Life)

		count := 0
		for _, nn := range cand.Neighbors() {
			m, known := knownState(pos, nn, &state)
			if !known {
				m, _ = src.Lookup(nn)
				st.Lookups++
			}
			if m == grid.Life {
				count++
			}
		}
		if count == 3 && claim(dst, cand, grid.Life) {
			st.Births++
		}
	}
}

// knownState reuses the lookups already done around pos when nn is pos itself
// or one of its neighbors.
func knownState(pos, nn grid.WorldPos, state *[8]grid.Material) (grid.Material, bool) {
	dx, dy := nn.X-pos.X, nn.Y-pos.Y
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
		return grid.Empty, false
	}
	idx := offsetIndex[dy+1][dx+1]
	if idx < 0 {
		return grid.Life, true
	}
	return state[idx], true
}

func (s *Stepper) fall(src, dst *grid.Store, pos grid.WorldPos, st *Stats) {
	targets := [3]grid.WorldPos{pos.Add(0, 1), pos.Add(-1, 1), pos.Add(1, 1)}
	for _, t := range targets {
		if t.Reserved() {
			continue
		}
		st.Lookups++
		if src.Has(t) {
			continue
		}
		if claim(dst, t, grid.Sand) {
			return
		}
	}
	claim(dst, pos, grid.Sand)
}

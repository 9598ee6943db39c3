package core

import "math/rand/v2"

// RNG draws from a PCG stream fixed by a seed, so seeded patterns repeat.
type RNG struct {
	r *rand.Rand
}

// NewRNG returns the stream for seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool { return r.r.Float64() < p }

// IntN returns a value in [0, n), or 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

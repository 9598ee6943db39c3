// Package arena provides a typed bump allocator whose contents are released
// all at once. Slots are addressed by index so growing the backing slice never
// invalidates a reference held by a caller.
package arena

import (
	"errors"
	"fmt"
)

// ErrLimit reports that a pool cannot grow past its configured limit.
var ErrLimit = errors.New("arena limit reached")

// Nil is the index value used for "no slot".
const Nil int32 = -1

// ExhaustedError is raised (as a panic value) when an allocation cannot be
// satisfied because the pool may not grow any further.
type ExhaustedError struct {
	Name     string
	Capacity int
	Limit    int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("arena %q exhausted: capacity %d, limit %d", e.Name, e.Capacity, e.Limit)
}

// Unwrap lets callers match exhaustion with errors.Is(err, ErrLimit).
func (e *ExhaustedError) Unwrap() error { return ErrLimit }

// Config sizes a pool. Zero values fall back to the defaults.
type Config struct {
	Initial   int
	Limit     int
	Increment int
}

// DefaultConfig mirrors the sizing used by the engine's cell stores.
func DefaultConfig() Config {
	return Config{Initial: 1 << 12, Limit: 1 << 26, Increment: 1 << 16}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Initial <= 0 {
		c.Initial = d.Initial
	}
	if c.Increment <= 0 {
		c.Increment = d.Increment
	}
	if c.Limit <= 0 {
		c.Limit = d.Limit
	}
	if c.Limit < c.Initial {
		c.Limit = c.Initial
	}
	return c
}

// Pool is a bump allocator of T values.
type Pool[T any] struct {
	name  string
	cfg   Config
	items []T
	top   int
}

// New allocates a pool with the configured initial capacity.
func New[T any](name string, cfg Config) *Pool[T] {
	cfg = cfg.normalized()
	return &Pool[T]{name: name, cfg: cfg, items: make([]T, cfg.Initial)}
}

// Alloc stores v in the next free slot and returns its index. A full pool is
// grown by the configured increment; if that is not allowed the call panics
// with an *ExhaustedError.
func (p *Pool[T]) Alloc(v T) int32 {
	if p.top == len(p.items) {
		extra := p.cfg.Increment
		if room := p.cfg.Limit - len(p.items); extra > room {
			extra = room
		}
		if err := p.Grow(extra); err != nil || extra == 0 {
			panic(&ExhaustedError{Name: p.name, Capacity: len(p.items), Limit: p.cfg.Limit})
		}
	}
	idx := p.top
	p.items[idx] = v
	p.top++
	return int32(idx)
}

// Grow extends the capacity by extra slots.
func (p *Pool[T]) Grow(extra int) error {
	if extra <= 0 {
		return nil
	}
	if len(p.items)+extra > p.cfg.Limit {
		return fmt.Errorf("grow %q by %d: %w", p.name, extra, ErrLimit)
	}
	grown := make([]T, len(p.items)+extra)
	copy(grown, p.items[:p.top])
	p.items = grown
	return nil
}

// Reset releases every slot at once. Capacity is retained.
func (p *Pool[T]) Reset() {
	var zero T
	for i := 0; i < p.top; i++ {
		p.items[i] = zero
	}
	p.top = 0
}

// At returns a pointer to slot i. The pointer is only valid until the next
// Grow or Reset; hold the index instead.
func (p *Pool[T]) At(i int32) *T { return &p.items[i] }

// Slice exposes the allocated prefix.
func (p *Pool[T]) Slice() []T { return p.items[:p.top] }

// Len reports the number of allocated slots.
func (p *Pool[T]) Len() int { return p.top }

// Cap reports the current capacity.
func (p *Pool[T]) Cap() int { return len(p.items) }

// Name identifies the pool in diagnostics.
func (p *Pool[T]) Name() string { return p.name }

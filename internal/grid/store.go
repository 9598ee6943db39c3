// Package grid implements the sparse spatial cell store: a power-of-two bucket
// table where each bucket holds a few entries inline and spills the rest into
// an arena-backed overflow chain, plus a flat list of every inserted cell for
// fast full iteration.
package grid

import (
	"cmp"
	"fmt"
	"slices"

	"sparse-ca/internal/arena"
)

const inlineSlots = 4

type entry struct {
	pos WorldPos
	mat Material
}

type node struct {
	entry
	next int32
}

type bucket struct {
	slots    [inlineSlots]entry
	overflow int32
}

var emptyBucket = func() bucket {
	var b bucket
	for i := range b.slots {
		b.slots[i].pos = WorldPos{X: Sentinel, Y: Sentinel}
	}
	b.overflow = arena.Nil
	return b
}()

// Option customises a Store.
type Option func(*Store)

// WithHasher replaces the default MixHash policy.
func WithHasher(h Hasher) Option {
	return func(s *Store) {
		if h != nil {
			s.hash = h
		}
	}
}

// WithArena sizes the store's node and live-list pools.
func WithArena(cfg arena.Config) Option {
	return func(s *Store) { s.arenaCfg = cfg }
}

// WithDuplicateCheck makes Insert panic when pos is already present.
func WithDuplicateCheck() Option {
	return func(s *Store) { s.checkDup = true }
}

// WithName labels the store's arenas in diagnostics.
func WithName(name string) Option {
	return func(s *Store) { s.name = name }
}

// Store maps WorldPos to Material. It is not safe for concurrent mutation;
// concurrent Lookup calls are fine while nothing writes.
type Store struct {
	name     string
	hash     Hasher
	arenaCfg arena.Config
	checkDup bool

	mask    uint64
	buckets []bucket
	nodes   *arena.Pool[node]
	live    *arena.Pool[entry]

	count    int
	stale    bool
	maxDepth int
}

// NewStore allocates a store with n buckets. n must be a power of two.
func NewStore(n int, opts ...Option) (*Store, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("bucket count %d is not a power of two", n)
	}
	s := &Store{name: "store", hash: MixHash, arenaCfg: arena.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	s.mask = uint64(n - 1)
	s.buckets = make([]bucket, n)
	for i := range s.buckets {
		s.buckets[i] = emptyBucket
	}
	s.nodes = arena.New[node](s.name+" overflow", s.arenaCfg)
	s.live = arena.New[entry](s.name+" live list", s.arenaCfg)
	return s, nil
}

// Index returns the bucket index for p.
func (s *Store) Index(p WorldPos) int { return int(s.hash(p) & s.mask) }

// Buckets reports the bucket count.
func (s *Store) Buckets() int { return len(s.buckets) }

// Len reports the number of cells currently present.
func (s *Store) Len() int { return s.count }

// Stale reports whether a removal happened since the last Clear, which means
// the flat live list may hold entries that are no longer present.
func (s *Store) Stale() bool { return s.stale }

// MaxDepth reports the deepest insertion position observed since the last
// Clear (1 = first inline slot).
func (s *Store) MaxDepth() int { return s.maxDepth }

// Lookup reports the material stored at p.
func (s *Store) Lookup(p WorldPos) (Material, bool) {
	b := &s.buckets[s.Index(p)]
	for i := range b.slots {
		e := &b.slots[i]
		if e.pos.X == Sentinel {
			return Empty, false
		}
		if e.pos == p {
			return e.mat, true
		}
	}
	for n := b.overflow; n != arena.Nil; {
		nd := s.nodes.At(n)
		if nd.pos == p {
			return nd.mat, true
		}
		n = nd.next
	}
	return Empty, false
}

// Has reports whether p is present.
func (s *Store) Has(p WorldPos) bool {
	_, ok := s.Lookup(p)
	return ok
}

// Insert adds p with material m. The caller guarantees p is not already
// present. Inserting Empty is a no-op.
func (s *Store) Insert(p WorldPos, m Material) {
	if p.X == Sentinel {
		panic(fmt.Sprintf("grid: insert of sentinel coordinate %v", p))
	}
	if m == Empty {
		return
	}
	if s.checkDup && s.Has(p) {
		panic(fmt.Sprintf("grid: duplicate insert at %v", p))
	}
	e := entry{pos: p, mat: m}
	s.live.Alloc(e)
	s.count++

	b := &s.buckets[s.Index(p)]
	for i := range b.slots {
		if b.slots[i].pos.X == Sentinel {
			b.slots[i] = e
			s.noteDepth(i + 1)
			return
		}
	}

	idx := s.nodes.Alloc(node{entry: e, next: arena.Nil})
	depth := inlineSlots + 1
	if b.overflow == arena.Nil {
		b.overflow = idx
		s.noteDepth(depth)
		return
	}
	tail := s.nodes.At(b.overflow)
	for tail.next != arena.Nil {
		tail = s.nodes.At(tail.next)
		depth++
	}
	tail.next = idx
	s.noteDepth(depth + 1)
}

func (s *Store) noteDepth(d int) {
	if d > s.maxDepth {
		s.maxDepth = d
	}
}

// Remove deletes p and reports whether it was present. The live list keeps
// the old entry, so the store is marked stale until the next Clear.
func (s *Store) Remove(p WorldPos) bool {
	b := &s.buckets[s.Index(p)]
	for i := range b.slots {
		if b.slots[i].pos.X == Sentinel {
			return false
		}
		if b.slots[i].pos != p {
			continue
		}
		copy(b.slots[i:], b.slots[i+1:])
		if b.overflow != arena.Nil {
			head := s.nodes.At(b.overflow)
			b.slots[inlineSlots-1] = head.entry
			b.overflow = head.next
		} else {
			b.slots[inlineSlots-1] = emptyBucket.slots[0]
		}
		s.removed()
		return true
	}

	prev := arena.Nil
	for n := b.overflow; n != arena.Nil; {
		nd := s.nodes.At(n)
		if nd.pos == p {
			if prev == arena.Nil {
				b.overflow = nd.next
			} else {
				s.nodes.At(prev).next = nd.next
			}
			s.removed()
			return true
		}
		prev, n = n, nd.next
	}
	return false
}

func (s *Store) removed() {
	s.count--
	s.stale = true
}

// Set paints p with m. Empty removes the cell; an existing cell of another
// material is replaced.
func (s *Store) Set(p WorldPos, m Material) {
	cur, ok := s.Lookup(p)
	switch {
	case m == Empty:
		if ok {
			s.Remove(p)
		}
	case !ok:
		s.Insert(p, m)
	case cur != m:
		s.Remove(p)
		s.Insert(p, m)
	}
}

// Clear drops every cell, resets the arenas and empties all buckets. Any index
// or pointer previously obtained from the store becomes invalid.
func (s *Store) Clear() {
	for i := range s.buckets {
		s.buckets[i] = emptyBucket
	}
	s.nodes.Reset()
	s.live.Reset()
	s.count = 0
	s.stale = false
	s.maxDepth = 0
}

// Range calls fn for every present cell. When no removal happened since the
// last Clear it walks the flat live list; otherwise it scans every bucket.
func (s *Store) Range(fn func(WorldPos, Material)) {
	if !s.stale {
		for _, e := range s.live.Slice() {
			fn(e.pos, e.mat)
		}
		return
	}
	s.rangeBuckets(fn)
}

func (s *Store) rangeBuckets(fn func(WorldPos, Material)) {
	for i := range s.buckets {
		b := &s.buckets[i]
		for j := range b.slots {
			if b.slots[j].pos.X == Sentinel {
				break
			}
			fn(b.slots[j].pos, b.slots[j].mat)
		}
		for n := b.overflow; n != arena.Nil; {
			nd := s.nodes.At(n)
			fn(nd.pos, nd.mat)
			n = nd.next
		}
	}
}

// LiveList returns the positions in the flat live list, stale entries
// included, in insertion order.
func (s *Store) LiveList() []WorldPos {
	out := make([]WorldPos, 0, s.live.Len())
	for _, e := range s.live.Slice() {
		out = append(out, e.pos)
	}
	return out
}

// Positions returns every present cell sorted by Y then X.
func (s *Store) Positions() []WorldPos {
	out := make([]WorldPos, 0, s.count)
	s.Range(func(p WorldPos, _ Material) { out = append(out, p) })
	slices.SortFunc(out, func(a, b WorldPos) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return out
}

// Bounds returns the inclusive bounding box of all present cells. ok is false
// for an empty store.
func (s *Store) Bounds() (lo, hi WorldPos, ok bool) {
	s.Range(func(p WorldPos, _ Material) {
		if !ok {
			lo, hi, ok = p, p, true
			return
		}
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	})
	return lo, hi, ok
}

package grid

import (
	"testing"

	"sparse-ca/internal/arena"
)

func newTestStore(t *testing.T, n int, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(n, append([]Option{WithDuplicateCheck()}, opts...)...)
	if err != nil {
		t.Fatalf("NewStore(%d): %v", n, err)
	}
	return s
}

// colliding returns k positions that all land in bucket 0 under LinearHash.
func colliding(k int) []WorldPos {
	out := make([]WorldPos, k)
	for i := range out {
		out[i] = WorldPos{X: int64(3 * i), Y: int64(-16 * i)}
	}
	return out
}

func TestNewStoreRejectsNonPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, -4, 3, 1000} {
		if _, err := NewStore(n); err == nil {
			t.Fatalf("expected error for bucket count %d", n)
		}
	}
	if _, err := NewStore(2048); err != nil {
		t.Fatalf("2048 buckets should be accepted: %v", err)
	}
}

func TestInsertLookup(t *testing.T) {
	s := newTestStore(t, 64)
	s.Insert(WorldPos{1, 2}, Life)
	s.Insert(WorldPos{-5, 7}, Sand)

	if m, ok := s.Lookup(WorldPos{1, 2}); !ok || m != Life {
		t.Fatalf("lookup (1,2) = %v,%v", m, ok)
	}
	if m, ok := s.Lookup(WorldPos{-5, 7}); !ok || m != Sand {
		t.Fatalf("lookup (-5,7) = %v,%v", m, ok)
	}
	if _, ok := s.Lookup(WorldPos{2, 1}); ok {
		t.Fatal("absent position reported present")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 cells, got %d", s.Len())
	}
}

func TestHashCollisionsAreDistinguished(t *testing.T) {
	s := newTestStore(t, 16, WithHasher(LinearHash))
	pts := colliding(8)
	for _, p := range pts {
		if s.Index(p) != 0 {
			t.Fatalf("%v should hash to bucket 0, got %d", p, s.Index(p))
		}
	}
	for _, p := range pts[:6] {
		s.Insert(p, Life)
	}
	for i, p := range pts {
		want := i < 6
		if got := s.Has(p); got != want {
			t.Fatalf("Has(%v) = %v, expected %v", p, got, want)
		}
	}
	if s.MaxDepth() != 6 {
		t.Fatalf("expected chain depth 6, got %d", s.MaxDepth())
	}
}

func TestRemoveInlinePromotesOverflow(t *testing.T) {
	s := newTestStore(t, 16, WithHasher(LinearHash))
	pts := colliding(6)
	for _, p := range pts {
		s.Insert(p, Life)
	}

	if !s.Remove(pts[1]) {
		t.Fatal("expected inline removal to succeed")
	}
	if s.Has(pts[1]) {
		t.Fatal("removed cell still present")
	}
	for _, p := range append([]WorldPos{pts[0]}, pts[2:]...) {
		if !s.Has(p) {
			t.Fatalf("cell %v lost after removal", p)
		}
	}
	b := s.buckets[0]
	if b.slots[inlineSlots-1].pos != pts[4] {
		t.Fatalf("expected overflow head %v promoted inline, got %v", pts[4], b.slots[inlineSlots-1].pos)
	}
	if !s.Stale() {
		t.Fatal("removal must mark the live list stale")
	}
	if s.Len() != 5 {
		t.Fatalf("expected 5 cells, got %d", s.Len())
	}
}

func TestRemoveFromOverflowChain(t *testing.T) {
	s := newTestStore(t, 16, WithHasher(LinearHash))
	pts := colliding(7)
	for _, p := range pts {
		s.Insert(p, Brick)
	}
	if !s.Remove(pts[5]) {
		t.Fatal("expected middle overflow removal to succeed")
	}
	if !s.Remove(pts[6]) {
		t.Fatal("expected tail overflow removal to succeed")
	}
	if !s.Remove(pts[4]) {
		t.Fatal("expected head overflow removal to succeed")
	}
	if s.Remove(pts[4]) {
		t.Fatal("second removal of the same cell should fail")
	}
	for _, p := range pts[:4] {
		if !s.Has(p) {
			t.Fatalf("inline cell %v lost", p)
		}
	}
	if s.buckets[0].overflow != arena.Nil {
		t.Fatal("overflow chain should be empty")
	}
}

func TestRangeFallsBackToBucketsWhenStale(t *testing.T) {
	s := newTestStore(t, 32)
	for i := int64(0); i < 10; i++ {
		s.Insert(WorldPos{i, i}, Life)
	}
	s.Remove(WorldPos{3, 3})

	if got := len(s.LiveList()); got != 10 {
		t.Fatalf("live list should keep stale entry, got %d entries", got)
	}
	seen := map[WorldPos]bool{}
	s.Range(func(p WorldPos, m Material) {
		if seen[p] {
			t.Fatalf("Range visited %v twice", p)
		}
		seen[p] = true
	})
	if len(seen) != 9 || seen[WorldPos{3, 3}] {
		t.Fatalf("Range visited %d cells, removed cell present=%v", len(seen), seen[WorldPos{3, 3}])
	}
}

func TestSetPaintsMaterials(t *testing.T) {
	s := newTestStore(t, 32)
	p := WorldPos{4, -4}

	s.Set(p, Sand)
	if m, _ := s.Lookup(p); m != Sand {
		t.Fatalf("expected sand, got %v", m)
	}
	s.Set(p, Sand)
	if s.Len() != 1 || s.Stale() {
		t.Fatal("painting the same material should be a no-op")
	}
	s.Set(p, Brick)
	if m, _ := s.Lookup(p); m != Brick || s.Len() != 1 {
		t.Fatalf("expected one brick, got %v (len %d)", m, s.Len())
	}
	s.Set(p, Empty)
	if s.Has(p) || s.Len() != 0 {
		t.Fatal("painting empty should remove the cell")
	}
}

func TestClearResetsEverything(t *testing.T) {
	s := newTestStore(t, 16, WithHasher(LinearHash))
	for _, p := range colliding(9) {
		s.Insert(p, Life)
	}
	s.Remove(WorldPos{0, 0})
	s.Clear()

	for i, b := range s.buckets {
		if b != emptyBucket {
			t.Fatalf("bucket %d not empty after Clear", i)
		}
	}
	if s.nodes.Len() != 0 || s.live.Len() != 0 {
		t.Fatalf("arenas not reset: nodes=%d live=%d", s.nodes.Len(), s.live.Len())
	}
	if s.Len() != 0 || s.Stale() || s.MaxDepth() != 0 {
		t.Fatal("counters not reset by Clear")
	}
	s.Insert(WorldPos{0, 0}, Life)
	if !s.Has(WorldPos{0, 0}) {
		t.Fatal("store unusable after Clear")
	}
}

func TestInsertSentinelPanics(t *testing.T) {
	s := newTestStore(t, 16)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for sentinel coordinate")
		}
	}()
	s.Insert(WorldPos{X: Sentinel, Y: 0}, Life)
}

func TestDuplicateInsertPanicsWithCheck(t *testing.T) {
	s := newTestStore(t, 16)
	s.Insert(WorldPos{1, 1}, Life)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for duplicate insert")
		}
	}()
	s.Insert(WorldPos{1, 1}, Life)
}

func TestExtremeCoordinates(t *testing.T) {
	s := newTestStore(t, 64)
	pts := []WorldPos{
		{Sentinel - 1, Sentinel},
		{-Sentinel - 1, -Sentinel - 1},
		{0, Sentinel},
	}
	for _, p := range pts {
		s.Insert(p, Life)
	}
	for _, p := range pts {
		if !s.Has(p) {
			t.Fatalf("extreme coordinate %v not found", p)
		}
	}
}

func TestPositionsAndBounds(t *testing.T) {
	s := newTestStore(t, 64)
	for _, p := range []WorldPos{{2, 1}, {-1, 5}, {0, 1}} {
		s.Insert(p, Life)
	}
	got := s.Positions()
	want := []WorldPos{{0, 1}, {2, 1}, {-1, 5}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Positions()[%d] = %v, expected %v", i, got[i], want[i])
		}
	}
	lo, hi, ok := s.Bounds()
	if !ok || lo != (WorldPos{-1, 1}) || hi != (WorldPos{2, 5}) {
		t.Fatalf("Bounds() = %v %v %v", lo, hi, ok)
	}
}

func TestParseMaterial(t *testing.T) {
	for _, m := range []Material{Empty, Sand, Brick, Life} {
		got, err := ParseMaterial(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMaterial(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMaterial("lava"); err == nil {
		t.Fatal("expected error for unknown material")
	}
}

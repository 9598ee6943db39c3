package arena

import (
	"errors"
	"testing"
)

func TestAllocGrowsByIncrement(t *testing.T) {
	p := New[int]("test", Config{Initial: 2, Limit: 10, Increment: 3})
	for i := 0; i < 5; i++ {
		if got := p.Alloc(i * 10); got != int32(i) {
			t.Fatalf("alloc %d returned index %d", i, got)
		}
	}
	if p.Cap() != 5 {
		t.Fatalf("expected capacity 5 after one growth, got %d", p.Cap())
	}
	for i := 0; i < 5; i++ {
		if v := *p.At(int32(i)); v != i*10 {
			t.Fatalf("slot %d = %d, expected %d", i, v, i*10)
		}
	}
}

func TestResetReleasesEverything(t *testing.T) {
	p := New[int]("test", Config{Initial: 4, Limit: 4, Increment: 1})
	p.Alloc(1)
	p.Alloc(2)
	p.Reset()
	if p.Len() != 0 {
		t.Fatalf("expected empty pool after reset, got %d", p.Len())
	}
	if got := p.Alloc(7); got != 0 {
		t.Fatalf("expected first slot to be reused, got %d", got)
	}
	if p.Cap() != 4 {
		t.Fatalf("reset should keep capacity, got %d", p.Cap())
	}
}

func TestGrowRespectsLimit(t *testing.T) {
	p := New[int]("test", Config{Initial: 2, Limit: 3, Increment: 1})
	if err := p.Grow(2); !errors.Is(err, ErrLimit) {
		t.Fatalf("expected ErrLimit, got %v", err)
	}
	if err := p.Grow(1); err != nil {
		t.Fatalf("grow within limit failed: %v", err)
	}
}

func TestAllocPanicsWhenExhausted(t *testing.T) {
	p := New[int]("cells", Config{Initial: 1, Limit: 1, Increment: 1})
	p.Alloc(1)

	defer func() {
		r := recover()
		err, ok := r.(*ExhaustedError)
		if !ok {
			t.Fatalf("expected *ExhaustedError panic, got %v", r)
		}
		if !errors.Is(err, ErrLimit) {
			t.Fatal("exhaustion should unwrap to ErrLimit")
		}
		if err.Name != "cells" {
			t.Fatalf("unexpected pool name %q", err.Name)
		}
	}()
	p.Alloc(2)
}

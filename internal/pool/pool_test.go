package pool

import (
	"sync"
	"testing"
)

func TestPool_EmptyGet(t *testing.T) {
	p := New[*int]()

	r, ok := p.Get()
	if ok {
		t.Error("Get() on empty pool reported ok")
	}
	if r != nil {
		t.Errorf("Get() on empty pool = %v, want nil", r)
	}
}

func TestPool_PutGet(t *testing.T) {
	p := New[int]()

	p.Put(1)
	p.Put(2)

	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}

	// LIFO order: most recently released first.
	if v, ok := p.Get(); !ok || v != 2 {
		t.Errorf("first Get() = %d, %v, want 2, true", v, ok)
	}
	if v, ok := p.Get(); !ok || v != 1 {
		t.Errorf("second Get() = %d, %v, want 1, true", v, ok)
	}
	if _, ok := p.Get(); ok {
		t.Error("third Get() reported ok on drained pool")
	}
}

func TestPool_Clear(t *testing.T) {
	p := New[string]()
	p.Put("a")
	p.Put("b")

	p.Clear()

	if p.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", p.Len())
	}
	if _, ok := p.Get(); ok {
		t.Error("Get() after Clear() reported ok")
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := New[int]()

	const goroutines = 8
	const rounds = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := range goroutines {
		go func(seed int) {
			defer wg.Done()
			for i := range rounds {
				p.Put(seed*rounds + i)
				p.Get()
			}
		}(g)
	}
	wg.Wait()

	// Every goroutine released one resource per acquired one; nothing
	// should have been lost or duplicated beyond the releases.
	if p.Len() > goroutines*rounds {
		t.Errorf("Len() = %d, exceeds total releases", p.Len())
	}
}

func TestPool_ConservationClosedLoop(t *testing.T) {
	p := New[*[]byte]()

	buf := make([]byte, 16)
	p.Put(&buf)

	seen := map[*[]byte]int{}
	for range 10 {
		r, ok := p.Get()
		if !ok {
			t.Fatal("pool unexpectedly empty in closed loop")
		}
		seen[r]++
		p.Put(r)
	}

	if len(seen) != 1 {
		t.Errorf("closed loop produced %d distinct resources, want 1", len(seen))
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

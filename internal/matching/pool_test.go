package matching

import "testing"

func TestPool_AllocFreeReuse(t *testing.T) {
	p := NewPool(2)
	a := p.Alloc()
	b := p.Alloc()
	if a == NilHandle || b == NilHandle || a == b {
		t.Fatalf("expected two distinct slots, got %d,%d", a, b)
	}
	if c := p.Alloc(); c != NilHandle {
		t.Fatalf("pool of size 2 should be exhausted, got %d", c)
	}
	p.Free(a)
	if c := p.Alloc(); c == NilHandle {
		t.Fatalf("alloc after free should succeed")
	}
}

func TestPool_ReallocatedNodeIsZeroed(t *testing.T) {
	p := NewPool(1)
	idx := p.Alloc()
	node := p.Get(idx)
	node.Qty = 42
	node.PriceTick = 7
	p.Free(idx)
	idx2 := p.Alloc()
	if idx2 != idx {
		t.Fatalf("single-slot pool should reuse the same index")
	}
	fresh := p.Get(idx2)
	if fresh.Qty != 0 || fresh.PriceTick != 0 {
		t.Fatalf("reallocated node should be zeroed, got %+v", fresh)
	}
}

func TestPool_ResetRestoresCapacity(t *testing.T) {
	p := NewPool(3)
	p.Alloc()
	p.Alloc()
	p.Reset()
	if p.Live() != 0 {
		t.Fatalf("reset should zero live count")
	}
	for i := 0; i < 3; i++ {
		if p.Alloc() == NilHandle {
			t.Fatalf("pool should have full capacity after reset")
		}
	}
}

func TestHandleTable_AllocLookupRelease(t *testing.T) {
	ht := NewHandleTable(2)
	h1 := ht.Alloc(10)
	h2 := ht.Alloc(20)
	if h1 == NilHandle || h2 == NilHandle || h1 == h2 {
		t.Fatalf("expected two distinct handles, got %d,%d", h1, h2)
	}
	if ht.Lookup(h1) != 10 {
		t.Fatalf("lookup should return the bound pool index")
	}
	if h3 := ht.Alloc(30); h3 != NilHandle {
		t.Fatalf("table of size 2 should be exhausted, got %d", h3)
	}
	ht.Release(h1)
	if ht.Lookup(h1) != NilHandle {
		t.Fatalf("released handle should no longer resolve")
	}
	if h3 := ht.Alloc(30); h3 == NilHandle {
		t.Fatalf("alloc after release should succeed")
	}
}

func TestHandleTable_RollingCursorAvoidsImmediateReuse(t *testing.T) {
	ht := NewHandleTable(4)
	h0 := ht.Alloc(0)
	h1 := ht.Alloc(1)
	ht.Release(h0)
	h2 := ht.Alloc(2)
	if h2 == h0 {
		t.Fatalf("rolling cursor should not immediately reissue the just-freed handle while others remain free: got %d twice", h0)
	}
	_ = h1
}

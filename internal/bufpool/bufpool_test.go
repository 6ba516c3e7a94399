package bufpool

import "testing"

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := New(64, 2)
	stats := p.Stats()
	if stats.TotalBlocks != 2 || stats.AllocatedBlocks != 0 {
		t.Fatalf("unexpected initial stats: %+v", stats)
	}

	buf := p.Acquire()
	if buf.Len() != 64 {
		t.Fatalf("expected len 64, got %d", buf.Len())
	}
	stats = p.Stats()
	if stats.AllocatedBlocks != 1 {
		t.Fatalf("expected 1 allocated, got %d", stats.AllocatedBlocks)
	}

	p.Release(buf)
	stats = p.Stats()
	if stats.AllocatedBlocks != 0 {
		t.Fatalf("expected 0 allocated after release, got %d", stats.AllocatedBlocks)
	}
	if buf.Bytes() != nil {
		t.Fatalf("expected released buffer to detach its payload")
	}
}

func TestAcquireGrowsOnDemand(t *testing.T) {
	p := New(8, 0)
	b1 := p.Acquire()
	b2 := p.Acquire()
	if b1 == nil || b2 == nil {
		t.Fatalf("acquire must never return nil on growth")
	}
	stats := p.Stats()
	if stats.TotalBlocks != 2 || stats.AllocatedBlocks != 2 {
		t.Fatalf("unexpected stats after growth: %+v", stats)
	}
}

func TestReleaseRejectsForeignBuffer(t *testing.T) {
	p1 := New(16, 1)
	p2 := New(16, 1)
	buf := p1.Acquire()

	p2.Release(buf) // should be rejected, logged, not crash
	if buf.Bytes() == nil {
		t.Fatalf("foreign release must not detach the buffer")
	}

	p1.Release(buf) // correct pool accepts it
	if buf.Bytes() != nil {
		t.Fatalf("expected buffer to be released by its owning pool")
	}
}

func TestDoubleReleaseRejected(t *testing.T) {
	p := New(16, 1)
	buf := p.Acquire()
	p.Release(buf)

	// buf.b is now nil so a naive second release is a no-op already; exercise
	// the free-list scan path directly via a manufactured duplicate handle.
	buf2 := p.Acquire()
	dup := &Buffer{b: buf2.b}
	p.Release(buf2)
	p.Release(dup) // same underlying block already on the free list

	stats := p.Stats()
	if stats.AllocatedBlocks != 0 {
		t.Fatalf("double release must not corrupt allocated count, got %+v", stats)
	}
}

func TestAcquireHeapFallback(t *testing.T) {
	buf := AcquireHeap(1024)
	if !buf.IsHeap() {
		t.Fatalf("expected heap buffer")
	}
	if buf.Len() != 1024 {
		t.Fatalf("expected len 1024, got %d", buf.Len())
	}
}

func TestDestroyClearsFreeList(t *testing.T) {
	p := New(16, 4)
	p.Destroy()
	stats := p.Stats()
	if stats.TotalBlocks != 0 {
		t.Fatalf("expected 0 total blocks after destroy, got %+v", stats)
	}
}

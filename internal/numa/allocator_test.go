package numa

import (
	"testing"
	"unsafe"
)

func TestAllocDeallocRoundTrip(t *testing.T) {
	a := New()

	p := a.Alloc(64)
	if p == nil {
		t.Fatal("Alloc returned nil")
	}

	heapHandle, size := readCookie(p)
	if size != 64 {
		t.Fatalf("cookie size = %d, want 64", size)
	}

	// Writing through the payload pointer must not corrupt the cookie.
	buf := unsafe.Slice((*byte)(p), 64)
	for i := range buf {
		buf[i] = 0xAB
	}
	h2, s2 := readCookie(p)
	if h2 != heapHandle || s2 != size {
		t.Fatalf("cookie corrupted by payload write: got (%d,%d), want (%d,%d)", h2, s2, heapHandle, size)
	}

	if err := a.Dealloc(p); err != nil {
		t.Fatalf("Dealloc failed: %v", err)
	}
}

func TestAllocZeroed(t *testing.T) {
	a := New()
	p := a.AllocZeroed(32)
	buf := unsafe.Slice((*byte)(p), 32)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestReallocPreservesPrefix(t *testing.T) {
	a := New()
	p := a.Alloc(8)
	buf := unsafe.Slice((*byte)(p), 8)
	for i := range buf {
		buf[i] = byte(i + 1)
	}

	p2, err := a.Realloc(p, 16)
	if err != nil {
		t.Fatalf("Realloc failed: %v", err)
	}
	buf2 := unsafe.Slice((*byte)(p2), 16)
	for i := 0; i < 8; i++ {
		if buf2[i] != byte(i+1) {
			t.Fatalf("byte %d after realloc = %d, want %d", i, buf2[i], i+1)
		}
	}
}

func TestParseCPUList(t *testing.T) {
	got := parseCPUList("0-2,5,7-8")
	want := []int{0, 1, 2, 5, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("parseCPUList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseCPUList = %v, want %v", got, want)
		}
	}
}

func TestDeallocReturnsBlockToPool(t *testing.T) {
	a := New()
	node := a.currentNode()
	heap := a.getHeap(node)

	p := a.Alloc(128)
	if err := a.Dealloc(p); err != nil {
		t.Fatalf("Dealloc failed: %v", err)
	}

	v, ok := heap.pool.Get().(*[]byte)
	if !ok {
		t.Fatal("pool.Get() returned nothing after Dealloc; block was not returned to the arena")
	}
	if cap(*v) < cookieSize+128 {
		t.Fatalf("pooled block capacity = %d, want >= %d", cap(*v), cookieSize+128)
	}
}

func TestAllocUint32SliceIsZeroedAndIndependent(t *testing.T) {
	a := New()
	s := a.AllocUint32Slice(256)
	if len(s) != 256 {
		t.Fatalf("len = %d, want 256", len(s))
	}
	for i := range s {
		if v := s[i].Load(); v != 0 {
			t.Fatalf("slot %d = %d, want 0", i, v)
		}
	}

	s[10].Store(42)
	s2 := a.AllocUint32Slice(4)
	for i := range s2 {
		if v := s2[i].Load(); v != 0 {
			t.Fatalf("second slice slot %d = %d, want 0 (must not alias the first)", i, v)
		}
	}
	if got := s[10].Load(); got != 42 {
		t.Fatalf("first slice slot 10 = %d, want 42 (clobbered by second allocation)", got)
	}
}

func TestNodeAllocationsTracksLiveCount(t *testing.T) {
	a := New()
	node := a.currentNode()

	before := a.NodeAllocations(node)
	p := a.Alloc(8)
	if got := a.NodeAllocations(node); got != before+1 {
		t.Fatalf("NodeAllocations after alloc = %d, want %d", got, before+1)
	}
	a.Dealloc(p)
	if got := a.NodeAllocations(node); got != before {
		t.Fatalf("NodeAllocations after dealloc = %d, want %d", got, before)
	}
}

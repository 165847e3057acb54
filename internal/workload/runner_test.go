package workload

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/codeGROOVE-dev/fixmap/internal/keypool"
)

// fakeHandle and fakeCollection back a trivial in-memory map so runner_test
// can exercise Run without pulling in any real adapter.
type fakeCollection struct {
	mu       sync.Mutex
	data     map[uint64]struct{}
	prefills int
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{data: make(map[uint64]struct{})}
}

func (c *fakeCollection) Pin() Handle[uint64, struct{}] { return &fakeHandle{c: c} }
func (c *fakeCollection) PrefillComplete()              { c.prefills++ }

type fakeHandle struct {
	c *fakeCollection
}

func (h *fakeHandle) Get(key uint64) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	_, ok := h.c.data[key]
	return ok
}

func (h *fakeHandle) Insert(key uint64) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if _, ok := h.c.data[key]; ok {
		return false
	}
	h.c.data[key] = struct{}{}
	return true
}

func (h *fakeHandle) Remove(key uint64) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if _, ok := h.c.data[key]; !ok {
		return false
	}
	delete(h.c.data, key)
	return true
}

func (h *fakeHandle) Update(key uint64) bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	_, ok := h.c.data[key]
	return ok
}

func TestRunReadOnlyProducesMeasurement(t *testing.T) {
	col := newFakeCollection()
	keys := keypool.New(1000)
	ops := ReadOnly().ToOps()

	m := Run[struct{}]("read-only", col, ops, RunConfig{Threads: 4, TotalOps: 4000, Prefill: 500}, keys)

	if m.ThreadCount != 4 {
		t.Fatalf("ThreadCount = %d, want 4", m.ThreadCount)
	}
	if m.TotalOps != 4000 {
		t.Fatalf("TotalOps = %d, want 4000", m.TotalOps)
	}
	if col.prefills != 1 {
		t.Fatalf("PrefillComplete called %d times, want 1", col.prefills)
	}
}

// TestRunReadOnlyEveryGetSucceeds is a scaled-down stand-in for §8 scenario
// 6's literal 1M-prefill/10M-op smoke test: every key drawn by a Read must
// have been prefilled, so every Get must report found=true. Scaled to a size
// a unit test can run in milliseconds rather than the spec's literal scale.
func TestRunReadOnlyEveryGetSucceeds(t *testing.T) {
	const prefill = 1000
	col := &countingCollection{fakeCollection: newFakeCollection()}
	keys := keypool.New(prefill + 100)
	ops := ReadOnly().ToOps()

	m := Run[struct{}]("read-only", col, ops, RunConfig{Threads: 4, TotalOps: 40_000, Prefill: prefill}, keys)

	if m.TotalOps != 40_000 {
		t.Fatalf("TotalOps = %d, want 40000", m.TotalOps)
	}
	if col.misses.Load() != 0 {
		t.Fatalf("%d of %d Gets missed a prefilled key, want 0", col.misses.Load(), m.TotalOps)
	}
	if col.gets.Load() == 0 {
		t.Fatal("no Get was ever dispatched, scenario exercised nothing")
	}
}

// countingCollection wraps fakeCollection's handles to tally every Get
// outcome, so the read-only scenario can assert its success-rate property
// instead of just checking the returned Measurement's shape.
type countingCollection struct {
	*fakeCollection
	gets   atomic.Uint64
	misses atomic.Uint64
}

func (c *countingCollection) Pin() Handle[uint64, struct{}] {
	return &countingHandle{h: c.fakeCollection.Pin(), c: c}
}

type countingHandle struct {
	h Handle[uint64, struct{}]
	c *countingCollection
}

func (h *countingHandle) Get(key uint64) bool {
	h.c.gets.Add(1)
	ok := h.h.Get(key)
	if !ok {
		h.c.misses.Add(1)
	}
	return ok
}

func (h *countingHandle) Insert(key uint64) bool { return h.h.Insert(key) }
func (h *countingHandle) Remove(key uint64) bool { return h.h.Remove(key) }
func (h *countingHandle) Update(key uint64) bool { return h.h.Update(key) }

func TestCyclicBarrierReleasesAllParties(t *testing.T) {
	const parties = 6
	b := newCyclicBarrier(parties)
	var wg sync.WaitGroup
	wg.Add(parties)
	var arrived sync.Map
	for i := 0; i < parties; i++ {
		go func(id int) {
			defer wg.Done()
			b.wait()
			arrived.Store(id, true)
		}(i)
	}
	wg.Wait()

	count := 0
	arrived.Range(func(_, _ any) bool { count++; return true })
	if count != parties {
		t.Fatalf("%d parties arrived, want %d", count, parties)
	}
}

func TestCyclicBarrierReusable(t *testing.T) {
	const parties = 3
	b := newCyclicBarrier(parties)
	for round := 0; round < 3; round++ {
		var wg sync.WaitGroup
		wg.Add(parties)
		for i := 0; i < parties; i++ {
			go func() {
				defer wg.Done()
				b.wait()
			}()
		}
		wg.Wait()
	}
}

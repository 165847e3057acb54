package fixmap

import "sync/atomic"

const (
	slabBlockSize = 64
	slabNumBlocks = 8
	slabCapacity  = slabBlockSize * slabNumBlocks // 512 entries per shard
)

// Entry is one BFixMap slab cell. next is a one-based index into the owning
// shard's Slab (0 = end of chain); it doubles as the intrusive chain link.
// Key is written once, at allocation, and never mutated afterwards, so it is
// safe for any goroutine holding a valid index to read it without
// synchronization. value is stored behind an atomic pointer so Insert and
// Modify can replace it with a single atomic op (Store) or a CAS retry loop,
// without requiring V to be comparable or needing a separate per-entry lock.
//
// Spec reference uses an atomic 16-bit word for next; sync/atomic has no
// Uint16, so this uses Uint32 for the same one-based-index semantics (the
// slab never exceeds slabCapacity=512 entries, so the extra width is unused
// range, not a behavior change).
type Entry[K comparable, V any] struct {
	Key   K
	value atomic.Pointer[V]
	next  atomic.Uint32
}

// Load returns the entry's current value, or the zero value if none has been
// stored yet.
func (e *Entry[K, V]) Load() V {
	p := e.value.Load()
	if p == nil {
		var zero V
		return zero
	}
	return *p
}

// Store unconditionally replaces the entry's value.
func (e *Entry[K, V]) Store(v V) {
	e.value.Store(&v)
}

// loadPtr and casPtr expose the underlying pointer identity for Modify's
// CAS-retry loop (see BFixMap.Modify).
func (e *Entry[K, V]) loadPtr() *V        { return e.value.Load() }
func (e *Entry[K, V]) casPtr(old, n *V) bool { return e.value.CompareAndSwap(old, n) }

// Slab is a shard-local, lock-free, append-only entry pool. Allocation is
// append-only and tracked by a monotonic fetch-add counter; blocks are
// materialized lazily, one CAS per block, and never reclaimed. free_entry is
// a deliberate no-op: removed cells leak until the map itself is dropped.
type Slab[K comparable, V any] struct {
	size   atomic.Uint32
	blocks [slabNumBlocks]atomic.Pointer[[slabBlockSize]Entry[K, V]]
}

// allocate reserves the next cell, materializing its block on demand, and
// returns its zero-based index. ok is false when the slab is exhausted.
func (s *Slab[K, V]) allocate() (index uint32, entry *Entry[K, V], ok bool) {
	i := s.size.Add(1) - 1
	if i >= slabCapacity {
		return 0, nil, false
	}

	blockIdx := i / slabBlockSize
	block := s.blocks[blockIdx].Load()
	if block == nil {
		candidate := new([slabBlockSize]Entry[K, V])
		if s.blocks[blockIdx].CompareAndSwap(nil, candidate) {
			block = candidate
		} else {
			// Lost the race: discard our candidate, use the winner's block.
			block = s.blocks[blockIdx].Load()
		}
	}

	return i, &block[i%slabBlockSize], true
}

// get returns the entry at index i, or ok=false if i has not been allocated
// (or its block has not yet been published).
func (s *Slab[K, V]) get(i uint32) (entry *Entry[K, V], ok bool) {
	if i >= s.size.Load() {
		return nil, false
	}
	block := s.blocks[i/slabBlockSize].Load()
	if block == nil {
		return nil, false
	}
	return &block[i%slabBlockSize], true
}

// len reports the number of allocated cells (may exceed live entries, since
// free_entry is a no-op).
func (s *Slab[K, V]) len() int {
	n := s.size.Load()
	if n > slabCapacity {
		n = slabCapacity
	}
	return int(n)
}

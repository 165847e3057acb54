package fixmap

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/codeGROOVE-dev/fixmap/internal/numa"
)

const (
	// defaultCapacityDivisor is the empirically tuned keys-per-shard ratio
	// used to size the shard count from a requested capacity. Exposed as a
	// named constant, not inlined, so recalibration is a one-line change.
	defaultCapacityDivisor = 222
	minShardCount          = 1024
	shardSlotCount         = 256
)

// ErrSlabExhausted names the condition of a shard's slab running out of
// cells. No function in this package returns it: NewBFixMap does not check
// its shard layout against the requested capacity, and Insert reports a full
// slab by returning (zero, false) without storing the key.
var ErrSlabExhausted = fmt.Errorf("fixmap: slab exhausted")

// shard is one of BFixMap's M independent sub-maps: a 256-entry slot table of
// one-based chain heads over its own append-only Slab. slots is carved out of
// the NUMA allocator's per-node arena (see NewBFixMap) rather than being an
// embedded array, so the hottest read/CAS path in Get/Insert/Remove lands on
// memory local to the shard's first toucher.
//
//nolint:govet // fieldalignment: clarity over padding, this is not the hot inner loop
type shard[K comparable, V any] struct {
	slots   []atomic.Uint32
	entries Slab[K, V]
	lock    BitLock // guards Remove (write) against Get/Insert/Modify (read); see §4.3
}

// BFixMap is a sharded, lock-free (except for Remove), CAS-based concurrent
// map with a fixed power-of-two shard count chosen at construction.
type BFixMap[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64
	hasher Hasher[K]
	alloc  *numa.Allocator
}

// bfixConfig holds the settings that BFixOption values apply in NewBFixMap.
type bfixConfig[K comparable] struct {
	hasher Hasher[K]
}

// BFixOption customizes NewBFixMap.
type BFixOption[K comparable] func(*bfixConfig[K])

// WithHasher overrides the default xxhash-based Hasher.
func WithHasher[K comparable](h Hasher[K]) BFixOption[K] {
	return func(c *bfixConfig[K]) { c.hasher = h }
}

// NewBFixMap constructs a BFixMap sized for requestedCapacity. The shard
// count is the nearest power of two to requestedCapacity/defaultCapacityDivisor,
// floored at minShardCount.
func NewBFixMap[K comparable, V any](requestedCapacity int, opts ...BFixOption[K]) (*BFixMap[K, V], error) {
	if requestedCapacity < 0 {
		return nil, fmt.Errorf("fixmap: negative capacity %d", requestedCapacity)
	}

	cfg := &bfixConfig[K]{hasher: DefaultHasher[K]()}
	for _, opt := range opts {
		opt(cfg)
	}

	want := requestedCapacity / defaultCapacityDivisor
	if want < minShardCount {
		want = minShardCount
	}
	m := 1 << bits.Len(uint(want-1)) // smallest power of two >= want
	if down := m >> 1; down >= minShardCount && want-down < m-want {
		m = down // the power of two below want is nearer
	}

	alloc := numa.New()
	shards := make([]*shard[K, V], m)
	for i := range shards {
		shards[i] = &shard[K, V]{slots: alloc.AllocUint32Slice(shardSlotCount)}
	}

	return &BFixMap[K, V]{
		shards: shards,
		mask:   uint64(m - 1),
		hasher: cfg.hasher,
		alloc:  alloc,
	}, nil
}

// locate computes the shard and in-shard slot for a key's hash. Shard bits
// and slot bits are disjoint so independent shards never contend on the
// same slot index.
func (m *BFixMap[K, V]) locate(h uint64) (s *shard[K, V], slot uint8) {
	shardIdx := (h >> 8) & m.mask
	return m.shards[shardIdx], uint8(h & 0xFF)
}

// find walks the chain rooted at slots[slot] looking for key. It returns the
// one-based index of the matching entry (0 if not found), the one-based
// index of the last entry visited before it (0 if the chain was empty or key
// was the head), and the chain head observed at the start of the walk.
func (s *shard[K, V]) find(slot uint8, key K) (found, prev, headAtStart uint32) {
	headAtStart = s.slots[slot].Load()
	cur := headAtStart
	var last uint32
	for cur != 0 {
		e, ok := s.entries.get(cur - 1)
		if !ok {
			break
		}
		if e.Key == key {
			return cur, last, headAtStart
		}
		last = cur
		cur = e.next.Load()
	}
	return 0, last, headAtStart
}

// Get returns the value stored for key, and whether it was present.
func (m *BFixMap[K, V]) Get(key K) (V, bool) {
	h := m.hasher(key)
	s, slot := m.locate(h)

	tok := s.lock.ReadLock()
	defer s.lock.ReadUnlock(tok)

	cur := s.slots[slot].Load()
	for cur != 0 {
		e, ok := s.entries.get(cur - 1)
		if !ok {
			break
		}
		if e.Key == key {
			return e.Load(), true
		}
		cur = e.next.Load()
	}
	var zero V
	return zero, false
}

// Insert stores value for key, returning the previous value (if any). If key
// was already present, its value is replaced in place; concurrent Inserts of
// the same key race at the value-replace step exactly as concurrent Modify
// calls do (see §4.3) — this is an accepted, documented weakness of the
// lock-free path, not a bug. If the key is absent and its shard's slab has no
// free cell, the key is not stored and Insert returns (zero, false), the same
// result as a successful new insertion.
func (m *BFixMap[K, V]) Insert(key K, value V) (V, bool) {
	h := m.hasher(key)
	s, slot := m.locate(h)

	tok := s.lock.ReadLock()
	defer s.lock.ReadUnlock(tok)

	var allocated uint32
	var allocatedEntry *Entry[K, V]

	for {
		found, _, headAtStart := s.find(slot, key)
		if found != 0 {
			e, _ := s.entries.get(found - 1)
			old := e.Load()
			e.Store(value)
			return old, true
		}

		if allocatedEntry == nil {
			idx, e, ok := s.entries.allocate()
			if !ok {
				var zero V
				return zero, false
			}
			e.Key = key
			e.Store(value)
			allocated = idx + 1 // one-based
			allocatedEntry = e
		}

		allocatedEntry.next.Store(headAtStart)
		if s.slots[slot].CompareAndSwap(headAtStart, allocated) {
			var zero V
			return zero, false
		}
		// CAS lost: another writer changed the head. Loop and re-check
		// whether the racer inserted the same key (in which case we fall
		// into the found branch above and our allocated-but-unlinked
		// entry is simply abandoned — consistent with slab cells never
		// being reclaimed).
	}
}

// Remove deletes key, returning its former value. Gated by the shard's
// BitLock in write mode (see SPEC_FULL.md §4.3's resolved Open Question):
// this drains concurrent readers first, so the unlink below races with
// nothing and needs no CAS retry loop.
func (m *BFixMap[K, V]) Remove(key K) (V, bool) {
	h := m.hasher(key)
	s, slot := m.locate(h)

	s.lock.WriteLock()
	defer s.lock.WriteUnlock()

	found, prev, _ := s.find(slot, key)
	if found == 0 {
		var zero V
		return zero, false
	}

	e, _ := s.entries.get(found - 1)
	next := e.next.Load()

	if prev == 0 {
		s.slots[slot].Store(next)
	} else {
		pe, _ := s.entries.get(prev - 1)
		pe.next.Store(next)
	}

	old := e.Load()
	var zero V
	e.Store(zero)
	return old, true
}

// Modify applies f to the current value of key in place and stores the
// result, retrying the CAS if another writer updated the value concurrently
// in between. It returns whether key was found. f's application is not
// atomic across the whole call: a concurrent Insert or Modify on the same
// key may interleave with f's evaluation (the spec's reference offers no
// stronger guarantee either).
func (m *BFixMap[K, V]) Modify(key K, f func(V) V) bool {
	h := m.hasher(key)
	s, slot := m.locate(h)

	tok := s.lock.ReadLock()
	defer s.lock.ReadUnlock(tok)

	found, _, _ := s.find(slot, key)
	if found == 0 {
		return false
	}
	e, _ := s.entries.get(found - 1)

	for {
		oldPtr := e.loadPtr()
		var oldVal V
		if oldPtr != nil {
			oldVal = *oldPtr
		}
		newVal := f(oldVal)
		if e.casPtr(oldPtr, &newVal) {
			return true
		}
	}
}

// Len returns the total number of allocated slab cells across all shards.
// Because free_entry is a no-op, this counts logically-removed cells too;
// it is a capacity/occupancy diagnostic, not a "live key count".
func (m *BFixMap[K, V]) Len() int {
	total := 0
	for _, s := range m.shards {
		total += s.entries.len()
	}
	return total
}

// ShardCount returns M, the fixed power-of-two shard count chosen at
// construction.
func (m *BFixMap[K, V]) ShardCount() int {
	return len(m.shards)
}

// NodeAllocations reports the number of live slot-table allocations the
// NUMA allocator attributes to node id, for diagnostics and tests.
func (m *BFixMap[K, V]) NodeAllocations(id uint32) int64 {
	return m.alloc.NodeAllocations(id)
}

// Package keypool generates the deterministic, pairwise-distinct key
// reservoir the workload runner draws prefill and insertion keys from.
package keypool

import (
	"math/rand/v2"
	"sync/atomic"
)

// Keys is an ordered sequence of N unique uint64 keys plus an atomic cursor
// partitioning "already inserted" keys from "to be inserted" ones.
//
// Grounded on the reference's Keys<TK>: new/reset/random/alloc_n.
type Keys struct {
	allocated atomic.Uint64
	keys      []uint64
}

// New generates totalKeys pairwise-distinct uint64 keys from a fixed seed, so
// every call with the same totalKeys yields the same sequence.
func New(totalKeys int) *Keys {
	rng := rand.New(rand.NewPCG(1, 2))
	seen := make(map[uint64]struct{}, totalKeys)
	keys := make([]uint64, 0, totalKeys)
	for len(keys) < totalKeys {
		k := rng.Uint64()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return &Keys{keys: keys}
}

// Reset zeroes the allocation cursor, e.g. between benchmark configurations.
func (k *Keys) Reset() {
	k.allocated.Store(0)
}

// Random returns a key from among those already allocated, indexed by i mod
// the current allocation count. Used by Read/Remove/Update/Upsert to pick a
// target that is known to exist.
func (k *Keys) Random(i uint64) uint64 {
	allocated := k.allocated.Load()
	if allocated == 0 {
		return 0
	}
	return k.keys[i%allocated]
}

// AllocN atomically reserves the next count keys and returns the slice
// covering them. Concurrent callers never observe overlapping slices.
func (k *Keys) AllocN(count int) []uint64 {
	start := k.allocated.Add(uint64(count)) - uint64(count)
	return k.keys[start : start+uint64(count)]
}

// Len returns the total number of distinct keys in the pool.
func (k *Keys) Len() int {
	return len(k.keys)
}

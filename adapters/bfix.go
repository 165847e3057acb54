package adapters

import "github.com/codeGROOVE-dev/fixmap"

// BFix drives a *fixmap.BFixMap as a workload Collection. BFixMap is already
// safe for concurrent use from many goroutines, so Pin just hands back the
// same handle value rather than allocating per-goroutine state.
type BFix[V any] struct {
	m *fixmap.BFixMap[uint64, V]
}

// NewBFix builds a BFix-backed collection sized for capacity entries.
func NewBFix[V any](capacity int) (*BFix[V], error) {
	m, err := fixmap.NewBFixMap[uint64, V](capacity)
	if err != nil {
		return nil, err
	}
	return &BFix[V]{m: m}, nil
}

func (c *BFix[V]) Pin() Handle[V]    { return bfixHandle[V]{m: c.m} }
func (c *BFix[V]) PrefillComplete() {}

type bfixHandle[V any] struct {
	m *fixmap.BFixMap[uint64, V]
}

func (h bfixHandle[V]) Get(key uint64) bool {
	_, ok := h.m.Get(key)
	return ok
}

func (h bfixHandle[V]) Insert(key uint64) bool {
	var zero V
	_, existed := h.m.Insert(key, zero)
	return !existed
}

func (h bfixHandle[V]) Remove(key uint64) bool {
	_, ok := h.m.Remove(key)
	return ok
}

// Update re-stores a key's current value through Modify, exercising the
// resolved CAS-retry write path without requiring V to support arithmetic.
func (h bfixHandle[V]) Update(key uint64) bool {
	return h.m.Modify(key, func(v V) V { return v })
}

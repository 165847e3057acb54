package adapters

import "sync"

// MutexMap is the plain-mutex baseline comparator: a stdlib map guarded by a
// single sync.Mutex. Grounded on original_source/src/adapters/stdmap.rs,
// whose entire purpose is to BE the naive baseline every lock-free structure
// is measured against — sync.Mutex is used here intentionally, not in place
// of a pack library.
type MutexMap[V any] struct {
	mu sync.Mutex
	m  map[uint64]V
}

// NewMutexMap builds a MutexMap pre-sized for capacity entries.
func NewMutexMap[V any](capacity int) *MutexMap[V] {
	return &MutexMap[V]{m: make(map[uint64]V, capacity)}
}

func (c *MutexMap[V]) Pin() Handle[V]    { return c }
func (c *MutexMap[V]) PrefillComplete() {}

func (c *MutexMap[V]) Get(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	return ok
}

func (c *MutexMap[V]) Insert(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; ok {
		return false
	}
	var zero V
	c.m[key] = zero
	return true
}

func (c *MutexMap[V]) Remove(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok {
		return false
	}
	delete(c.m, key)
	return true
}

func (c *MutexMap[V]) Update(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	if !ok {
		return false
	}
	c.m[key] = v
	return true
}

package adapters

import "github.com/puzpuzpuz/xsync/v4"

// XsyncMap drives a *xsync.Map, the lock-free map the teacher's own cache
// reaches for "tested and found significantly faster" than a mutex-guarded
// stdlib map. Included as a comparator between MutexMap and this module's
// own BFixMap/SFixMap.
type XsyncMap[V any] struct {
	m *xsync.Map[uint64, V]
}

// NewXsyncMap builds an XsyncMap-backed collection.
func NewXsyncMap[V any]() *XsyncMap[V] {
	return &XsyncMap[V]{m: xsync.NewMap[uint64, V]()}
}

func (c *XsyncMap[V]) Pin() Handle[V]    { return c }
func (c *XsyncMap[V]) PrefillComplete() {}

func (c *XsyncMap[V]) Get(key uint64) bool {
	_, ok := c.m.Load(key)
	return ok
}

func (c *XsyncMap[V]) Insert(key uint64) bool {
	var zero V
	_, loaded := c.m.LoadOrStore(key, zero)
	return !loaded
}

func (c *XsyncMap[V]) Remove(key uint64) bool {
	_, ok := c.m.LoadAndDelete(key)
	return ok
}

func (c *XsyncMap[V]) Update(key uint64) bool {
	v, ok := c.m.Load(key)
	if !ok {
		return false
	}
	c.m.Store(key, v)
	return true
}

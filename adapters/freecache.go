package adapters

import (
	"strconv"

	"github.com/coocood/freecache"
)

// FreeCache drives a *freecache.Cache, an admission-aware comparator tuned
// the same way mem_freecache sizes it: total bytes as capacity times an
// estimated per-entry size plus a fixed overhead.
type FreeCache struct {
	c       *freecache.Cache
	valSize int
}

// NewFreeCache builds a FreeCache sized for capacity entries of valSize
// bytes each, per mem_freecache's size = cap*(valSize+overhead) sizing.
func NewFreeCache(capacity, valSize int) *FreeCache {
	const perEntryOverhead = 256
	size := capacity * (valSize + perEntryOverhead)
	return &FreeCache{c: freecache.NewCache(size), valSize: valSize}
}

func (c *FreeCache) Pin() Handle[[]byte] { return c }
func (c *FreeCache) PrefillComplete()    {}

func (c *FreeCache) Get(key uint64) bool {
	_, err := c.c.Get(keyBytes(key))
	return err == nil
}

func (c *FreeCache) Insert(key uint64) bool {
	existed := c.Get(key)
	_ = c.c.Set(keyBytes(key), make([]byte, c.valSize), 0)
	return !existed
}

func (c *FreeCache) Remove(key uint64) bool {
	return c.c.Del(keyBytes(key))
}

func (c *FreeCache) Update(key uint64) bool {
	v, err := c.c.Get(keyBytes(key))
	if err != nil {
		return false
	}
	_ = c.c.Set(keyBytes(key), v, 0)
	return true
}

func keyBytes(key uint64) []byte {
	return []byte("key-" + strconv.FormatUint(key, 10))
}

package adapters

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU drives a *lru.Cache[string, []byte], the hashicorp/golang-lru
// comparator, grounded on mem_lru's construction and access pattern.
type LRU struct {
	c       *lru.Cache[string, []byte]
	valSize int
}

// NewLRU builds an LRU-backed collection sized for capacity entries of
// valSize bytes each.
func NewLRU(capacity, valSize int) (*LRU, error) {
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c, valSize: valSize}, nil
}

func (c *LRU) Pin() Handle[[]byte] { return c }
func (c *LRU) PrefillComplete()    {}

func (c *LRU) Get(key uint64) bool {
	_, ok := c.c.Get(lruKey(key))
	return ok
}

func (c *LRU) Insert(key uint64) bool {
	existed := c.Get(key)
	c.c.Add(lruKey(key), make([]byte, c.valSize))
	return !existed
}

func (c *LRU) Remove(key uint64) bool {
	return c.c.Remove(lruKey(key))
}

func (c *LRU) Update(key uint64) bool {
	v, ok := c.c.Get(lruKey(key))
	if !ok {
		return false
	}
	c.c.Add(lruKey(key), v)
	return true
}

func lruKey(key uint64) string {
	return "key-" + strconv.FormatUint(key, 10)
}

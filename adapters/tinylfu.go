package adapters

import (
	"strconv"

	"github.com/vmihailenco/go-tinylfu"
)

// TinyLFU drives a *tinylfu.T via NewSync (its internally-locked
// constructor), grounded on mem_tinylfu's cache.Set/cache.Get usage and
// samples-to-size ratio.
type TinyLFU struct {
	c       *tinylfu.T
	valSize int
}

// NewTinyLFU builds a TinyLFU-backed collection sized for capacity entries
// of valSize bytes each, with the same samples=10x-capacity ratio
// mem_tinylfu uses.
func NewTinyLFU(capacity, valSize int) *TinyLFU {
	return &TinyLFU{c: tinylfu.NewSync(capacity, capacity*10), valSize: valSize}
}

func (c *TinyLFU) Pin() Handle[[]byte] { return c }
func (c *TinyLFU) PrefillComplete()    {}

func (c *TinyLFU) Get(key uint64) bool {
	_, ok := c.c.Get(tinyLFUKey(key))
	return ok
}

func (c *TinyLFU) Insert(key uint64) bool {
	existed := c.Get(key)
	c.c.Set(&tinylfu.Item{Key: tinyLFUKey(key), Value: make([]byte, c.valSize)})
	return !existed
}

func (c *TinyLFU) Remove(key uint64) bool {
	existed := c.Get(key)
	c.c.Del(tinyLFUKey(key))
	return existed
}

func (c *TinyLFU) Update(key uint64) bool {
	v, ok := c.c.Get(tinyLFUKey(key))
	if !ok {
		return false
	}
	c.c.Set(&tinylfu.Item{Key: tinyLFUKey(key), Value: v})
	return true
}

func tinyLFUKey(key uint64) string {
	return "key-" + strconv.FormatUint(key, 10)
}

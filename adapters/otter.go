package adapters

import (
	"strconv"

	"github.com/maypok86/otter/v2"
)

// Otter drives a *otter.Cache[string, []byte], grounded on mem_otter's
// otter.Must(&otter.Options{MaximumSize: cap}) construction.
type Otter struct {
	c       *otter.Cache[string, []byte]
	valSize int
}

// NewOtter builds an Otter-backed collection sized for capacity entries of
// valSize bytes each.
func NewOtter(capacity, valSize int) *Otter {
	c := otter.Must(&otter.Options[string, []byte]{MaximumSize: capacity})
	return &Otter{c: c, valSize: valSize}
}

func (c *Otter) Pin() Handle[[]byte] { return c }
func (c *Otter) PrefillComplete()    {}

func (c *Otter) Get(key uint64) bool {
	_, ok := c.c.GetIfPresent(otterKey(key))
	return ok
}

func (c *Otter) Insert(key uint64) bool {
	existed := c.Get(key)
	c.c.Set(otterKey(key), make([]byte, c.valSize))
	return !existed
}

func (c *Otter) Remove(key uint64) bool {
	existed := c.Get(key)
	c.c.Invalidate(otterKey(key))
	return existed
}

func (c *Otter) Update(key uint64) bool {
	v, ok := c.c.GetIfPresent(otterKey(key))
	if !ok {
		return false
	}
	c.c.Set(otterKey(key), v)
	return true
}

func otterKey(key uint64) string {
	return "key-" + strconv.FormatUint(key, 10)
}

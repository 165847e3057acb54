package adapters

import (
	"strconv"

	"github.com/dgraph-io/ristretto"
)

// Ristretto drives a *ristretto.Cache, sized the same way mem_ristretto
// configures it: NumCounters at 10x MaxCost for admission accuracy.
type Ristretto struct {
	c       *ristretto.Cache
	valSize int
}

// NewRistretto builds a Ristretto-backed collection for capacity entries of
// valSize bytes each.
func NewRistretto(capacity, valSize int) (*Ristretto, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(capacity * 10),
		MaxCost:            int64(capacity),
		BufferItems:        64 * 1024,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c, valSize: valSize}, nil
}

func (c *Ristretto) Pin() Handle[[]byte] { return c }
func (c *Ristretto) PrefillComplete()    { c.c.Wait() }

func (c *Ristretto) Get(key uint64) bool {
	_, ok := c.c.Get(ristrettoKey(key))
	return ok
}

func (c *Ristretto) Insert(key uint64) bool {
	existed := c.Get(key)
	c.c.Set(ristrettoKey(key), make([]byte, c.valSize), 1)
	return !existed
}

func (c *Ristretto) Remove(key uint64) bool {
	existed := c.Get(key)
	c.c.Del(ristrettoKey(key))
	return existed
}

func (c *Ristretto) Update(key uint64) bool {
	v, ok := c.c.Get(ristrettoKey(key))
	if !ok {
		return false
	}
	c.c.Set(ristrettoKey(key), v, 1)
	return true
}

func ristrettoKey(key uint64) string {
	return "key-" + strconv.FormatUint(key, 10)
}

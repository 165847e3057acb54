package adapters

import "github.com/codeGROOVE-dev/fixmap"

// SFix drives a *fixmap.SFixMap per worker goroutine: SFixMap is
// single-writer by design, so Pin allocates a fresh instance rather than
// sharing one across goroutines, per sfixmap.go's own documented contract.
type SFix[V any] struct {
	capacity int
}

// NewSFix builds an SFix-backed collection; each Pin call gets its own
// SFixMap sized for capacity.
func NewSFix[V any](capacity int) *SFix[V] {
	return &SFix[V]{capacity: capacity}
}

func (c *SFix[V]) Pin() Handle[V] {
	m, err := fixmap.NewSFixMap[uint64, V](c.capacity)
	if err != nil {
		// NewSFix does not validate capacity; NewSFixMap rejects a negative
		// value here, which is a benchmark setup error, not a per-op failure.
		panic(err)
	}
	return &sfixHandle[V]{m: m}
}

func (c *SFix[V]) PrefillComplete() {}

type sfixHandle[V any] struct {
	m *fixmap.SFixMap[uint64, V]
}

func (h *sfixHandle[V]) Get(key uint64) bool {
	_, ok := h.m.Get(key)
	return ok
}

func (h *sfixHandle[V]) Insert(key uint64) bool {
	var zero V
	_, found, err := h.m.Insert(key, zero)
	return err == nil && !found
}

func (h *sfixHandle[V]) Remove(key uint64) bool {
	_, ok := h.m.Remove(key)
	return ok
}

func (h *sfixHandle[V]) Update(key uint64) bool {
	v, ok := h.m.Get(key)
	if !ok {
		return false
	}
	_, _, err := h.m.Insert(key, v)
	return err == nil
}

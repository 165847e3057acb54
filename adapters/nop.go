package adapters

// NoOp performs no work and reports success unconditionally. Grounded on
// original_source/src/adapters/nop.rs: it measures the harness's own
// overhead (goroutine scheduling, barrier rendezvous, key generation) with
// no map work mixed in, giving every other comparator's numbers a floor to
// subtract.
type NoOp[V any] struct{}

// NewNoOp builds a NoOp collection.
func NewNoOp[V any]() *NoOp[V] { return &NoOp[V]{} }

func (c *NoOp[V]) Pin() Handle[V]    { return c }
func (c *NoOp[V]) PrefillComplete() {}

func (c *NoOp[V]) Get(uint64) bool    { return true }
func (c *NoOp[V]) Insert(uint64) bool { return true }
func (c *NoOp[V]) Remove(uint64) bool { return true }
func (c *NoOp[V]) Update(uint64) bool { return true }

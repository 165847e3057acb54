package workload

import (
	"sync"
	"time"

	"github.com/codeGROOVE-dev/fixmap/internal/keypool"
)

// Collection is a shared owner of a map implementation: Pin yields a
// per-goroutine Handle, and PrefillComplete is the post-prefill hook fired
// once before workers start. Grounded on the reference's Collection trait.
type Collection[K comparable, V any] interface {
	Pin() Handle[K, V]
	PrefillComplete()
}

// Handle is a per-goroutine view over a shared map. Every method reports
// boolean success: true iff the operation observed the expected semantics
// (key present for Get/Update/Remove, key absent for Insert).
type Handle[K comparable, V any] interface {
	Get(key K) bool
	Insert(key K) bool
	Remove(key K) bool
	Update(key K) bool
}

// RunConfig parameterizes one workload run.
type RunConfig struct {
	Threads      int
	TotalOps     int
	Prefill      int
	Distribution KeyDistribution // defaults to Uniform
}

// Measurement is the result of one workload run.
type Measurement struct {
	Name        string
	TotalOps    uint64
	LatencyNs   uint64
	ThreadCount uint64
}

// cyclicBarrier is a reusable N-party rendezvous, the Go equivalent of the
// reference's std::sync::Barrier: all parties block in Wait until the Nth
// arrives, then all are released together. Built from a counter and a
// sync.Cond rather than a channel, the same condvar-gated-counter idiom used
// elsewhere in this codebase's lock primitives.
type cyclicBarrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	count      int
	generation int
}

func newCyclicBarrier(parties int) *cyclicBarrier {
	b := &cyclicBarrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *cyclicBarrier) wait() {
	b.mu.Lock()
	gen := b.generation
	b.count++
	if b.count == b.parties {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// Run prefills the collection, then spawns cfg.Threads worker goroutines
// that race the shared barrier, execute their share of ops against the
// operation template, and report the total op count and average latency.
// Two barrier waits bracket the timed region so start/stop alignment is
// precise, per §4.6.
func Run[V any](name string, collection Collection[uint64, V], ops []Operation, cfg RunConfig, keys *keypool.Keys) Measurement {
	numThreads := cfg.Threads
	opsPerThread := cfg.TotalOps / numThreads

	keys.Reset()
	prefillKeys := keys.AllocN(cfg.Prefill)
	inserter := collection.Pin()
	for _, k := range prefillKeys {
		inserter.Insert(k)
	}
	collection.PrefillComplete()

	// keysPerThread bounds how many distinct keys a thread can insert: the
	// number of Insert dispatches in one pass of the template, scaled to
	// opsPerThread. Callers size the key pool to cover
	// prefill + threads*keysPerThread, mirroring the reference harness's
	// convention of the caller owning key-pool sizing. A mix with zero
	// Insert dispatches reserves zero keys: reserving any would widen
	// Random's allocated range past the prefilled keys and let a Read land
	// on a key nothing ever inserted, breaking the read-only smoke test's
	// "every Get returned true" property (§8 scenario 6).
	inserts := countInserts(ops)
	keysPerThread := 0
	if inserts > 0 {
		keysPerThread = (opsPerThread*inserts + len(ops) - 1) / len(ops)
	}
	barrier := newCyclicBarrier(numThreads + 1)

	var totalNanos atomicInt64
	var wg sync.WaitGroup
	wg.Add(numThreads)

	dist := cfg.Distribution
	if dist == nil {
		dist = Uniform()
	}

	for n := 0; n < numThreads; n++ {
		go func() {
			defer wg.Done()
			handle := collection.Pin()
			insertKeys := keys.AllocN(keysPerThread)

			barrier.wait()
			start := time.Now()
			runOps[V](handle, keys, ops, opsPerThread, insertKeys, dist)
			elapsed := time.Since(start)
			totalNanos.add(elapsed.Nanoseconds())
			barrier.wait()
		}()
	}

	barrier.wait()
	barrier.wait()
	wg.Wait()

	realTotalOps := uint64(opsPerThread * numThreads)
	avgLatency := uint64(0)
	if realTotalOps > 0 {
		avgLatency = uint64(totalNanos.load()) / realTotalOps
	}

	return Measurement{
		Name:        name,
		TotalOps:    realTotalOps,
		LatencyNs:   avgLatency,
		ThreadCount: uint64(numThreads),
	}
}

// countInserts returns how many OpInsert dispatches appear in one pass of
// the template.
func countInserts(ops []Operation) int {
	n := 0
	for _, op := range ops {
		if op == OpInsert {
			n++
		}
	}
	return n
}

// runOps dispatches opsPerThread operations from the shared template.
func runOps[V any](h Handle[uint64, V], keys *keypool.Keys, template []Operation, opsPerThread int, insertKeys []uint64, dist KeyDistribution) {
	n := len(template)
	nextInsert := 0
	for i := 0; i < opsPerThread; i++ {
		switch template[i%n] {
		case OpRead:
			h.Get(keys.Random(dist.Next()))
		case OpInsert:
			h.Insert(insertKeys[nextInsert%len(insertKeys)])
			nextInsert++
		case OpRemove:
			h.Remove(keys.Random(dist.Next()))
		case OpUpdate, OpUpsert:
			// Upsert is documented in the reference as a shortcut for
			// Update; preserved unchanged here.
			h.Update(keys.Random(dist.Next()))
		}
	}
}

// atomicInt64 is a tiny sum accumulator for per-thread elapsed nanoseconds;
// a dedicated type keeps Run's signature free of sync/atomic noise.
type atomicInt64 struct {
	mu  sync.Mutex
	val int64
}

func (a *atomicInt64) add(d int64) {
	a.mu.Lock()
	a.val += d
	a.mu.Unlock()
}

func (a *atomicInt64) load() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.val
}

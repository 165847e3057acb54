// Package adapters implements the workload runner's Collection/Handle
// interfaces over this module's own maps plus a set of third-party cache
// libraries, so all of them can be driven through the same benchmark
// harness. Grounded on original_source/src/bench.rs's Collection/
// CollectionHandle traits and the adapters/ directory alongside it.
package adapters

import "github.com/codeGROOVE-dev/fixmap/internal/workload"

// Collection and Handle are the uint64-keyed specializations of the
// workload package's generic interfaces every adapter below implements.
type Collection[V any] = workload.Collection[uint64, V]

// Handle is a per-goroutine view over a Collection.
type Handle[V any] = workload.Handle[uint64, V]

// Package numa implements a per-NUMA-node pool allocator. Go has no raw
// HeapAlloc/HeapCreate surface, so the reference's native-heap-per-node
// design is reproduced with a sync.Pool-backed byte arena per node and the
// same 16-byte cookie-immediately-before-payload layout, routed with
// unsafe.Pointer arithmetic instead of an OS heap handle. Dealloc returns the
// block to its node's pool for reuse rather than freeing it by hand; Go's GC
// reclaims a block for good only once nothing (including the pool) still
// references it.
package numa

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sys/unix"
)

// MaxNodes bounds the number of lazily-created node heaps, matching the
// reference's MAX_NUMA_NODES.
const MaxNodes = 8

// cookieSize is the width of the header written immediately before every
// payload pointer, satisfying Invariant 7.
const cookieSize = 16

// nodeHeap is one NUMA node's arena: a sync.Pool of retired blocks, sized to
// the node's own churn, plus allocation accounting. Allocations striped
// across nodes use an xsync.Counter (the same lock-free striped-counter type
// the sibling shard package prefers over a single contended atomic.Int64) so
// allocation bookkeeping itself never becomes a bottleneck.
type nodeHeap struct {
	id          uint32
	allocations *xsync.Counter
	pool        sync.Pool
}

// Allocator is the process-wide, per-NUMA-node pool allocator.
type Allocator struct {
	heaps      [MaxNodes]atomic.Pointer[nodeHeap]
	numNodes   int
	cpuToNode  []int // populated from sysfs at construction, if available
	warnedOnce atomic.Bool
}

// New builds an Allocator, discovering NUMA topology from
// /sys/devices/system/node at construction time. If sysfs is unavailable
// (non-Linux, containerized without /sys, or a parse failure), topology
// detection falls back to a CPU-modulo heuristic and a single warning is
// logged on first use.
func New() *Allocator {
	return &Allocator{
		numNodes:  MaxNodes,
		cpuToNode: discoverTopology(),
	}
}

// discoverTopology parses /sys/devices/system/node/node*/cpulist into a
// cpu -> node lookup table. Returns nil if sysfs is unreadable.
func discoverTopology() []int {
	entries, err := os.ReadDir("/sys/devices/system/node")
	if err != nil {
		return nil
	}

	var cpuToNode []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "node") {
			continue
		}
		nodeID, err := strconv.Atoi(strings.TrimPrefix(name, "node"))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join("/sys/devices/system/node", name, "cpulist"))
		if err != nil {
			continue
		}
		for _, cpu := range parseCPUList(strings.TrimSpace(string(data))) {
			for len(cpuToNode) <= cpu {
				cpuToNode = append(cpuToNode, -1)
			}
			cpuToNode[cpu] = nodeID
		}
	}
	if len(cpuToNode) == 0 {
		return nil
	}
	return cpuToNode
}

// parseCPUList parses a Linux cpulist string like "0-3,8,10-11".
func parseCPUList(s string) []int {
	var out []int
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			lo2, err1 := strconv.Atoi(lo)
			hi2, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil {
				continue
			}
			for c := lo2; c <= hi2; c++ {
				out = append(out, c)
			}
		} else {
			c, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// currentNode determines the calling OS thread's NUMA node via a real
// syscall, the Linux-native equivalent of the reference's
// GetThreadGroupAffinity/GROUP_AFFINITY.Mask query.
func (a *Allocator) currentNode() uint32 {
	cpu, err := unix.SchedGetcpu()
	if err != nil || cpu < 0 {
		return 0
	}
	if a.cpuToNode != nil && cpu < len(a.cpuToNode) && a.cpuToNode[cpu] >= 0 {
		return uint32(a.cpuToNode[cpu] % a.numNodes)
	}
	if a.warnedOnce.CompareAndSwap(false, true) {
		slog.Warn("numa: topology unavailable, falling back to cpu-modulo node selection")
	}
	return uint32(cpu % a.numNodes)
}

// getHeap lazily initializes (via CAS) and returns the heap for node id. The
// loser of the CAS discards its candidate, mirroring the reference's
// "loser deletes its heap" lazy-init contract.
func (a *Allocator) getHeap(id uint32) *nodeHeap {
	slot := &a.heaps[id%MaxNodes]
	if h := slot.Load(); h != nil {
		return h
	}
	candidate := &nodeHeap{id: id, allocations: xsync.NewCounter()}
	if slot.CompareAndSwap(nil, candidate) {
		return candidate
	}
	return slot.Load()
}

// Alloc returns a payload pointer to a freshly allocated region of size
// bytes, preceded by a 16-byte cookie {heap_handle, original_block} (here:
// node id and allocation size) identifying the originating node so Dealloc
// and Realloc can route back to it.
func (a *Allocator) Alloc(size int) unsafe.Pointer {
	return a.alloc(size, false)
}

// AllocZeroed is like Alloc but guarantees the returned bytes are zeroed.
func (a *Allocator) AllocZeroed(size int) unsafe.Pointer {
	return a.alloc(size, true)
}

func (a *Allocator) alloc(size int, zero bool) unsafe.Pointer {
	node := a.currentNode()
	heap := a.getHeap(node)
	heap.allocations.Add(1)

	total := cookieSize + size
	buf := heap.take(total)
	if zero {
		clear(buf)
	}
	writeCookie(buf, node, uint32(size))

	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(buf)), cookieSize)
}

// take pops a retired block of at least n bytes from the node's pool,
// trimming it to exactly n; if the pool is empty or its candidate is too
// small, it falls back to a fresh allocation.
func (h *nodeHeap) take(n int) []byte {
	if v, ok := h.pool.Get().(*[]byte); ok {
		if cap(*v) >= n {
			return (*v)[:n]
		}
	}
	return make([]byte, n)
}

// give returns a retired block to the node's pool for reuse by a future
// take. Go's sync.Pool does not guarantee zeroed reuse, so AllocZeroed
// callers must not assume a reused block arrives clean without it.
func (h *nodeHeap) give(buf []byte) {
	h.pool.Put(&buf)
}

func writeCookie(buf []byte, heapHandle, originalSize uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], heapHandle)
	binary.LittleEndian.PutUint32(buf[4:8], originalSize)
	// bytes 8:16 reserved, matching the reference's fixed 16-byte width.
}

func readCookie(p unsafe.Pointer) (heapHandle, originalSize uint32) {
	base := unsafe.Add(p, -cookieSize)
	buf := unsafe.Slice((*byte)(base), cookieSize)
	return binary.LittleEndian.Uint32(buf[0:4]), binary.LittleEndian.Uint32(buf[4:8])
}

// Dealloc validates p's cookie, retires the node's accounting, and returns
// the block to its originating node's pool so a later Alloc on that node can
// reuse it instead of growing the heap again. The caller must not
// dereference p after this call: the block may be handed to another
// allocation immediately.
func (a *Allocator) Dealloc(p unsafe.Pointer) error {
	heapHandle, size := readCookie(p)
	heap := a.heaps[heapHandle%MaxNodes].Load()
	if heap == nil {
		return fmt.Errorf("numa: dealloc referenced an uninitialised heap %d", heapHandle)
	}
	heap.allocations.Add(-1)
	base := unsafe.Add(p, -cookieSize)
	heap.give(unsafe.Slice((*byte)(base), cookieSize+int(size)))
	return nil
}

// Realloc allocates newSize bytes from p's originating node, copies
// min(oldSize, newSize) bytes across, deallocates p, and returns the new
// payload pointer.
func (a *Allocator) Realloc(p unsafe.Pointer, newSize int) (unsafe.Pointer, error) {
	heapHandle, oldSize := readCookie(p)
	heap := a.heaps[heapHandle%MaxNodes].Load()
	if heap == nil {
		return nil, fmt.Errorf("numa: realloc referenced an uninitialised heap %d", heapHandle)
	}

	newBuf := heap.take(cookieSize + newSize)
	writeCookie(newBuf, heapHandle, uint32(newSize))

	n := int(oldSize)
	if newSize < n {
		n = newSize
	}
	oldBytes := unsafe.Slice((*byte)(p), oldSize)
	copy(newBuf[cookieSize:cookieSize+n], oldBytes[:n])

	if err := a.Dealloc(p); err != nil {
		return nil, err
	}
	heap.allocations.Add(1)

	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(newBuf)), cookieSize), nil
}

// NodeAllocations returns the live allocation count tracked for node id, for
// diagnostics and tests; it does not participate in the alloc/dealloc
// contract itself.
func (a *Allocator) NodeAllocations(id uint32) int64 {
	h := a.heaps[id%MaxNodes].Load()
	if h == nil {
		return 0
	}
	return h.allocations.Value()
}

// AllocUint32Slice returns n atomic.Uint32 cells carved from a NUMA-local
// AllocZeroed block. atomic.Uint32 has the exact layout of a uint32 (no
// pointer fields), so unlike a type such as Entry that embeds a real Go
// pointer, reinterpreting the raw block this way gives the garbage collector
// nothing it needs to trace — it is as safe as handing out a []byte. The
// payload pointer Alloc returns is always at least 8-byte aligned (it sits
// cookieSize=16 bytes into a make([]byte, ...) allocation, and the Go
// allocator word-aligns any block that size), comfortably meeting
// atomic.Uint32's 4-byte alignment requirement.
func (a *Allocator) AllocUint32Slice(n int) []atomic.Uint32 {
	p := a.AllocZeroed(n * 4)
	return unsafe.Slice((*atomic.Uint32)(p), n)
}

package fixmap

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const sfixBlockSize = 16

// ErrSFixMapFull is returned by Insert when a full lap over the map finds no
// free cell. SFixMap never resizes; callers must size the map correctly.
var ErrSFixMapFull = fmt.Errorf("fixmap: sfixmap full")

// SFixMap is a single-writer, open-addressed map using a Swiss-table-style
// control-byte scheme with block-chained overflow. It is not safe for
// concurrent writers; the benchmark harness gives each worker its own
// instance (see adapters.SFix).
//
// Control bytes: 0 = empty, 0xFF at a block-aligned (block-head) position =
// overflow marker ("keep probing past this block"), otherwise the 8-bit
// fingerprint of the occupying key's hash (clamped >= 1).
type SFixMap[K comparable, V any] struct {
	index  []uint8
	keys   []K
	values []V
	mask   uint64
	hasher Hasher[K]
}

type sfixConfig[K comparable] struct {
	hasher Hasher[K]
}

// SFixOption customizes NewSFixMap.
type SFixOption[K comparable] func(*sfixConfig[K])

// WithSFixHasher overrides the default xxhash-based Hasher.
func WithSFixHasher[K comparable](h Hasher[K]) SFixOption[K] {
	return func(c *sfixConfig[K]) { c.hasher = h }
}

// NewSFixMap constructs an SFixMap sized for capacity. size is the smallest
// power of two >= max(256, 3*capacity), per the invariant that guarantees
// SFixMap saturation (testable property 6).
func NewSFixMap[K comparable, V any](capacity int, opts ...SFixOption[K]) (*SFixMap[K, V], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("fixmap: negative capacity %d", capacity)
	}

	cfg := &sfixConfig[K]{hasher: DefaultHasher[K]()}
	for _, opt := range opts {
		opt(cfg)
	}

	want := 3 * capacity
	if want < 256 {
		want = 256
	}
	size := nextPow2(want)

	return &SFixMap[K, V]{
		index:  make([]uint8, size),
		keys:   make([]K, size),
		values: make([]V, size),
		mask:   uint64(size - 1),
		hasher: cfg.hasher,
	}, nil
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// calcIndex block-aligns the starting slot and derives the 8-bit fingerprint
// (clamped to be at least 1 so it never collides with "empty").
func (m *SFixMap[K, V]) calcIndex(h uint64) (slot int, hash8 uint8) {
	s := h & m.mask &^ uint64(sfixBlockSize-1)
	h8 := uint8(h & 0xFF)
	if h8 == 0 {
		h8 = 1
	}
	return int(s), h8
}

// swarBroadcast replicates b into every byte of a 64-bit word.
func swarBroadcast(b uint8) uint64 {
	return uint64(b) * 0x0101010101010101
}

// swarMatch is the SWAR (SIMD-within-a-register) byte-parallel equality
// trick: a set high bit in byte k of the result means byte k of word equals
// the byte value broadcast into target. This reproduces the semantics of
// _mm_cmpeq_epi8/_mm_movemask_epi8 on a packed uint64 instead of a real
// 128-bit SIMD lane, since Go has no portable SIMD intrinsic surface without
// cgo or assembly. The zero-byte test adds within each byte's low 7 bits, so
// no carry or borrow crosses into a neighbouring byte and the mask is exact.
func swarMatch(word, target uint64) uint64 {
	const lo7 = 0x7F7F7F7F7F7F7F7F
	match := word ^ target
	return ^(((match & lo7) + lo7) | match | lo7)
}

// blockMatchMask returns a 16-bit mask (bit i set iff block[i] == target)
// for the 16 control bytes starting at blockStart. Blocks are always
// block-aligned and size is always a multiple of 16, so this never needs to
// wrap mid-block.
func (m *SFixMap[K, V]) blockMatchMask(blockStart int, target uint8) uint16 {
	b := m.index[blockStart : blockStart+sfixBlockSize]
	lo := binary.LittleEndian.Uint64(b[0:8])
	hi := binary.LittleEndian.Uint64(b[8:16])
	t := swarBroadcast(target)
	loMask := swarMatch(lo, t)
	hiMask := swarMatch(hi, t)

	var result uint16
	for i := 0; i < 8; i++ {
		if (loMask>>(8*i))&0x80 != 0 {
			result |= 1 << uint(i)
		}
		if (hiMask>>(8*i))&0x80 != 0 {
			result |= 1 << uint(i+8)
		}
	}
	return result
}

func (m *SFixMap[K, V]) blocks() int {
	return len(m.index) / sfixBlockSize
}

// Get returns the value for key, and whether it was found.
func (m *SFixMap[K, V]) Get(key K) (V, bool) {
	h := m.hasher(key)
	slot, hash8 := m.calcIndex(h)

	for i, n := 0, m.blocks(); i < n; i++ {
		blockStart := (slot + i*sfixBlockSize) % len(m.index)

		mask := m.blockMatchMask(blockStart, hash8) &^ 1
		for mask != 0 {
			bit := bits.TrailingZeros16(mask)
			candidate := blockStart + bit
			if m.keys[candidate] == key {
				return m.values[candidate], true
			}
			mask &^= 1 << uint(bit)
		}

		if m.index[blockStart] != 0xFF {
			var zero V
			return zero, false
		}
	}
	var zero V
	return zero, false
}

// Insert stores value for key. If key was already present, its value is
// replaced and the old value returned with found=true. If the map is full
// (a complete lap finds no free cell), it returns ErrSFixMapFull.
func (m *SFixMap[K, V]) Insert(key K, value V) (old V, found bool, err error) {
	h := m.hasher(key)
	slot, hash8 := m.calcIndex(h)
	size := len(m.index)

	for i, n := 0, m.blocks(); i < n; i++ {
		blockStart := (slot + i*sfixBlockSize) % size

		mask := m.blockMatchMask(blockStart, hash8) &^ 1
		for mask != 0 {
			bit := bits.TrailingZeros16(mask)
			candidate := blockStart + bit
			if m.keys[candidate] == key {
				old = m.values[candidate]
				m.values[candidate] = value
				return old, true, nil
			}
			mask &^= 1 << uint(bit)
		}

		emptyMask := m.blockMatchMask(blockStart, 0) &^ 1
		if emptyMask != 0 {
			bit := bits.TrailingZeros16(emptyMask)
			candidate := blockStart + bit
			m.index[candidate] = hash8
			m.keys[candidate] = key
			m.values[candidate] = value
			var zero V
			return zero, false, nil
		}

		// No free cell in this block: mark the overflow bit before
		// advancing so future lookups know to keep probing.
		m.index[blockStart] = 0xFF
	}

	var zero V
	return zero, false, ErrSFixMapFull
}

// Remove deletes key, returning its former value. Clearing a single control
// byte does not clear any overflow markers set on other block heads, so
// lookups of other keys still probe forward correctly.
func (m *SFixMap[K, V]) Remove(key K) (V, bool) {
	h := m.hasher(key)
	slot, hash8 := m.calcIndex(h)
	size := len(m.index)

	for i, n := 0, m.blocks(); i < n; i++ {
		blockStart := (slot + i*sfixBlockSize) % size

		mask := m.blockMatchMask(blockStart, hash8) &^ 1
		for mask != 0 {
			bit := bits.TrailingZeros16(mask)
			candidate := blockStart + bit
			if m.keys[candidate] == key {
				old := m.values[candidate]
				m.index[candidate] = 0
				var zeroK K
				var zeroV V
				m.keys[candidate] = zeroK
				m.values[candidate] = zeroV
				return old, true
			}
			mask &^= 1 << uint(bit)
		}

		if m.index[blockStart] != 0xFF {
			var zero V
			return zero, false
		}
	}
	var zero V
	return zero, false
}

// Cap returns the map's fixed cell count (power of two, >= max(256, 3*capacity)).
func (m *SFixMap[K, V]) Cap() int {
	return len(m.index)
}

package fixmap

import (
	"fmt"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Hasher produces a 64-bit fingerprint for a key. Both BFixMap and SFixMap
// are parametric over Hasher[K] so callers may plug in a custom hash;
// NewBFixMap and NewSFixMap without an explicit hasher fall back to
// DefaultHasher[K].
type Hasher[K comparable] func(K) uint64

// DefaultHasher builds a Hasher for K using xxhash.Sum64 over the key's
// natural byte representation. Non-cryptographic by design (cryptographic
// hashing is explicitly out of scope): xxhash is the fast, non-cryptographic
// hash already present in this codebase's dependency lineage.
//
// Key-type detection happens once, at construction, mirroring the sibling
// cache package's avoidance of a type switch on every hot-path call.
func DefaultHasher[K comparable]() Hasher[K] {
	var zero K
	switch any(zero).(type) {
	case string:
		return func(k K) uint64 {
			s := *(*string)(unsafe.Pointer(&k))
			return xxhash.Sum64String(s)
		}
	case int:
		return func(k K) uint64 {
			v := *(*int)(unsafe.Pointer(&k))
			return hashUint64(uint64(v))
		}
	case int64:
		return func(k K) uint64 {
			v := *(*int64)(unsafe.Pointer(&k))
			return hashUint64(uint64(v))
		}
	case uint64:
		return func(k K) uint64 {
			v := *(*uint64)(unsafe.Pointer(&k))
			return hashUint64(v)
		}
	case uint:
		return func(k K) uint64 {
			v := *(*uint)(unsafe.Pointer(&k))
			return hashUint64(uint64(v))
		}
	default:
		return func(k K) uint64 {
			switch v := any(k).(type) {
			case fmt.Stringer:
				return xxhash.Sum64String(v.String())
			default:
				return xxhash.Sum64String(fmt.Sprintf("%v", k))
			}
		}
	}
}

// hashUint64 feeds an 8-byte little-endian encoding of v through xxhash, so
// integer and string keys share one underlying hash family.
func hashUint64(v uint64) uint64 {
	var b [8]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
	return xxhash.Sum64(b[:])
}

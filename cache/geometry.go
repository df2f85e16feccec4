// Package cache models a set-associative cache and replays memory
// accesses against it, counting hits, misses, and evictions.
package cache

import "math/bits"

// Geometry describes the shape of the simulated cache. It is immutable
// once constructed; callers are expected to validate the values (see
// Config.Validate) before building a Geometry from them.
type Geometry struct {
	// NumSets is the number of sets (S). Must be a power of two.
	NumSets int
	// LinesPerSet is the associativity (K), the number of ways per set.
	LinesPerSet int
	// LineBytes is the cache line size in bytes (B). Must be a power
	// of two.
	LineBytes int

	setIndexBits    uint
	blockOffsetBits uint
}

// NewGeometry derives the bit widths for set indexing and block offsets
// from the given dimensions. S and B must be powers of two; K must be
// positive.
func NewGeometry(numSets, linesPerSet, lineBytes int) Geometry {
	return Geometry{
		NumSets:         numSets,
		LinesPerSet:     linesPerSet,
		LineBytes:       lineBytes,
		setIndexBits:    log2(numSets),
		blockOffsetBits: log2(lineBytes),
	}
}

// log2 returns the base-2 logarithm of a power of two.
func log2(v int) uint {
	return uint(bits.TrailingZeros64(uint64(v)))
}

// Decompose splits an address into the set index that selects a set and
// the tag that identifies the memory block within that set.
//
// With a single set, setIndexBits is zero and the mask below is zero,
// so every address maps to set 0 without a special case.
func (g Geometry) Decompose(addr uint64) (setIndex, tag uint64) {
	setIndex = (addr >> g.blockOffsetBits) & ((1 << g.setIndexBits) - 1)
	tag = addr >> (g.setIndexBits + g.blockOffsetBits)

	return setIndex, tag
}

// BlockNumber returns the full, untruncated number of the memory block
// holding addr. Two addresses fall on the same cache line exactly when
// their block numbers are equal.
func (g Geometry) BlockNumber(addr uint64) uint64 {
	return addr >> g.blockOffsetBits
}

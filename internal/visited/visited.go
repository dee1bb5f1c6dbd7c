// Package visited provides the deduplication scratch used by region queries:
// a seen-marker bitset indexed by element handle plus a compact list of the
// handles touched, so resetting after a query costs work done, not table size.
package visited

// Set marks handles seen during a single traversal. It is per-instance
// scratch state: concurrent use of one Set races.
type Set struct {
	bits  []uint64
	dirty []int32
}

// New creates a set sized for handles below capacity. The set grows on
// demand and never shrinks.
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]int32, 0, 64),
	}
}

// TestAndSet marks h as seen and reports whether it already was. Newly seen
// handles are recorded for Reset.
func (s *Set) TestAndSet(h int32) bool {
	word := int(h >> 6)
	mask := uint64(1) << (h & 63)
	if s.bits[word]&mask != 0 {
		return true
	}
	s.bits[word] |= mask
	s.dirty = append(s.dirty, h)
	return false
}

// Reset clears only the bits set since the previous Reset.
func (s *Set) Reset() {
	for _, h := range s.dirty {
		s.bits[h>>6] &^= uint64(1) << (h & 63)
	}
	s.dirty = s.dirty[:0]
}

// Grow ensures the set can mark handles below capacity. It must be called
// before traversal whenever the element pool may have grown.
func (s *Set) Grow(capacity int) {
	words := (capacity + 63) / 64
	if words <= len(s.bits) {
		return
	}
	if c := 2 * len(s.bits); words < c {
		words = c
	}
	bits := make([]uint64, words)
	copy(bits, s.bits)
	s.bits = bits
}

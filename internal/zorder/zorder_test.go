package zorder

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpreadBits(t *testing.T) {
	assert.Equal(t, uint64(0), SpreadBits(0))
	assert.Equal(t, uint64(1), SpreadBits(1))
	assert.Equal(t, uint64(0b101), SpreadBits(0b11))
	assert.Equal(t, uint64(0b10001), SpreadBits(0b101))
	assert.Equal(t, evenMask, SpreadBits(0xFFFFFFFF))
}

func TestInterleave(t *testing.T) {
	// (x, y) -> y bits on odd positions, x bits on even positions.
	assert.Equal(t, uint64(0), Interleave(0, 0))
	assert.Equal(t, uint64(1), Interleave(1, 0))
	assert.Equal(t, uint64(2), Interleave(0, 1))
	assert.Equal(t, uint64(3), Interleave(1, 1))
	assert.Equal(t, uint64(0b1100), Interleave(2, 2))

	// Full-width inputs use all 64 output bits.
	assert.Equal(t, ^uint64(0), Interleave(0xFFFFFFFF, 0xFFFFFFFF))
	assert.Equal(t, evenMask, Interleave(0xFFFFFFFF, 0))
	assert.Equal(t, oddMask, Interleave(0, 0xFFFFFFFF))
}

// The accelerated path and the portable ladder must agree bit for bit on all
// same-width inputs.
func TestInterleaveFastMatchesGeneric(t *testing.T) {
	if !hasFastInterleave {
		t.Skip("no accelerated interleave on this architecture")
	}

	edge := []uint32{0, 1, 2, 3, 0x7FFF, 0x8000, 0xFFFF, 0x10000, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFE, 0xFFFFFFFF}
	for _, x := range edge {
		for _, y := range edge {
			require.Equal(t, interleaveGeneric(x, y), interleaveFast(x, y), "x=%#x y=%#x", x, y)
		}
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1_000_000; i++ {
		x, y := rng.Uint32(), rng.Uint32()
		if g, f := interleaveGeneric(x, y), interleaveFast(x, y); g != f {
			t.Fatalf("mismatch at x=%#x y=%#x: generic=%#x fast=%#x", x, y, g, f)
		}
	}
}

func TestIndexMaskWraparound(t *testing.T) {
	mask := uint64(1)<<16 - 1

	// Indices never exceed the mask.
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10000; i++ {
		idx := Index(int32(rng.Uint32()), int32(rng.Uint32()), mask)
		require.LessOrEqual(t, idx, mask)
	}

	// Cells 2^8 apart on both axes interleave to indices 2^16 apart and
	// alias onto the same bucket. Accepted false sharing, pinned here.
	assert.Equal(t, Index(3, 7, mask), Index(3+1<<8, 7, mask))
	assert.Equal(t, Index(3, 7, mask), Index(3, 7+1<<8, mask))
}

func TestIndexNegativeCoordinates(t *testing.T) {
	mask := uint64(1)<<16 - 1

	// Negative coordinates are defined by two's-complement conversion:
	// -1 behaves as 0xFFFFFFFF before masking.
	assert.Equal(t, Interleave(0xFFFFFFFF, 0)&mask, Index(-1, 0, mask))
	assert.Equal(t, Interleave(0, 0xFFFFFFFF)&mask, Index(0, -1, mask))

	// Deterministic: same inputs, same bucket.
	assert.Equal(t, Index(-5, -9, mask), Index(-5, -9, mask))

	// Adjacent negative cells map to distinct buckets (no folding onto 0).
	assert.NotEqual(t, Index(-1, 0, mask), Index(0, 0, mask))
	assert.NotEqual(t, Index(-1, 0, mask), Index(-2, 0, mask))
}

func BenchmarkInterleaveGeneric(b *testing.B) {
	var acc uint64
	for i := 0; i < b.N; i++ {
		acc += interleaveGeneric(uint32(i), uint32(i)*2654435761)
	}
	_ = acc
}

func BenchmarkInterleave(b *testing.B) {
	var acc uint64
	for i := 0; i < b.N; i++ {
		acc += Interleave(uint32(i), uint32(i)*2654435761)
	}
	_ = acc
}

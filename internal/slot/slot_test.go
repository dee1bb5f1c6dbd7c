package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocRelease(t *testing.T) {
	p := New[string]()

	a := p.Alloc("a")
	b := p.Alloc("b")
	c := p.Alloc("c")
	require.Equal(t, int32(0), a)
	require.Equal(t, int32(1), b)
	require.Equal(t, int32(2), c)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "b", *p.At(b))

	// LIFO reuse: the most recently freed slot comes back first.
	p.Release(b)
	p.Release(a)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 2, p.FreeLen())

	assert.Equal(t, a, p.Alloc("a2"))
	assert.Equal(t, b, p.Alloc("b2"))
	assert.Equal(t, "b2", *p.At(b))
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 3, p.Cap())

	// Free list exhausted, growth resumes.
	assert.Equal(t, int32(3), p.Alloc("d"))
	assert.Equal(t, 4, p.Cap())
}

func TestPoolReleaseKeepsPayload(t *testing.T) {
	p := New[int]()
	h := p.Alloc(42)
	p.Release(h)
	// Release does not zero the slot.
	assert.Equal(t, 42, *p.At(h))
}

func TestPoolClear(t *testing.T) {
	p := New[int]()
	for i := 0; i < 10; i++ {
		p.Alloc(i)
	}
	p.Release(4)
	p.Clear()

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Cap())
	assert.Equal(t, int32(0), p.Alloc(99))
}

func TestPoolReserve(t *testing.T) {
	p := New[int]()
	a := p.Alloc(1)
	p.Reserve(1000)
	assert.Equal(t, 1, *p.At(a))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 1, p.Cap())
}

func TestPoolSnapshotRestore(t *testing.T) {
	p := New[int]()
	for i := 0; i < 5; i++ {
		p.Alloc(i * 10)
	}
	p.Release(1)
	p.Release(3)

	var q Pool[int]
	q.Restore(p.Snapshot())

	assert.Equal(t, p.Len(), q.Len())
	assert.Equal(t, p.Cap(), q.Cap())
	assert.Equal(t, 20, *q.At(2))

	// Restored free list reuses the same slots in the same order.
	assert.Equal(t, int32(3), q.Alloc(-1))
	assert.Equal(t, int32(1), q.Alloc(-2))
	assert.Equal(t, int32(5), q.Alloc(-3))
}

package linked

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fynwin/zgrid/grid"
	"github.com/fynwin/zgrid/internal/debug"
	"github.com/fynwin/zgrid/internal/slot"
	"github.com/fynwin/zgrid/testutil"
)

func newTestGrid(t *testing.T, optFns ...func(*grid.Options)) grid.Index[int] {
	t.Helper()

	g, err := New[int](optFns...)
	require.NoError(t, err)

	return g
}

func TestLinkedConformance(t *testing.T) {
	testutil.RunIndexSuite(t, newTestGrid)
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		g, err := New[int]()
		require.NoError(t, err)
		assert.Equal(t, grid.DefaultOptions, g.Options())
		assert.Len(t, g.nodes, grid.DefaultOptions.TableSize())
	})

	t.Run("InvalidCellSize", func(t *testing.T) {
		_, err := New[int](func(o *grid.Options) { o.CellSize = 0 })
		require.ErrorIs(t, err, grid.ErrInvalidCellSize)
	})

	t.Run("InvalidTableBits", func(t *testing.T) {
		_, err := New[int](func(o *grid.Options) { o.TableBits = 30 })
		require.ErrorIs(t, err, grid.ErrInvalidTableBits)
	})
}

func TestFreeNodeReuse(t *testing.T) {
	g, err := New[int](func(o *grid.Options) { o.CellSize = 10 })
	require.NoError(t, err)

	// 2x2 cells, so four membership nodes.
	b := grid.Bounds{X: 0, Y: 0, W: 15, H: 15}
	h := g.Insert(1, b)

	stats := g.Stats()
	require.Equal(t, 4, stats.BucketEntries)
	require.Zero(t, stats.FreeBucketEntries)
	nodesAfterInsert := len(g.nodes)

	g.Remove(h, b)
	stats = g.Stats()
	assert.Zero(t, stats.BucketEntries)
	assert.Equal(t, 4, stats.FreeBucketEntries)

	// Reinsertion must recycle the freed nodes, not grow the slice.
	g.Insert(2, grid.Bounds{X: 100, Y: 100, W: 15, H: 15})
	stats = g.Stats()
	assert.Equal(t, 4, stats.BucketEntries)
	assert.Zero(t, stats.FreeBucketEntries)
	assert.Equal(t, nodesAfterInsert, len(g.nodes))
}

func TestElementSlotReuse(t *testing.T) {
	g, err := New[int](func(o *grid.Options) { o.CellSize = 10 })
	require.NoError(t, err)

	b := grid.Bounds{X: 0, Y: 0, W: 5, H: 5}
	h := g.Insert(1, b)
	g.Remove(h, b)

	// The freed slot comes back LIFO, so the handle repeats.
	assert.Equal(t, h, g.Insert(2, b))
	assert.Equal(t, 1, g.Stats().HighWater)
}

func TestUnlinkAbsentIsNoOp(t *testing.T) {
	if debug.Enabled {
		t.Skip("absent unlink panics under the zgriddebug tag")
	}

	g, err := New[int](func(o *grid.Options) { o.CellSize = 10 })
	require.NoError(t, err)

	g.Insert(1, grid.Bounds{X: 0, Y: 0, W: 5, H: 5})

	// Unlinking a handle from a bucket it never joined must leave the
	// bucket's members intact.
	g.unlink(0, 99)
	assert.ElementsMatch(t, []int{1}, g.Query(grid.Bounds{X: 0, Y: 0, W: 5, H: 5}, nil))
}

func TestClearReleasesNodes(t *testing.T) {
	g, err := New[int](func(o *grid.Options) { o.CellSize = 10 })
	require.NoError(t, err)

	for i := 0; i < 16; i++ {
		g.Insert(i, grid.Bounds{X: int32(i) * 10, Y: 0, W: 25, H: 25})
	}
	require.Greater(t, len(g.nodes), g.opts.TableSize())

	g.Clear()
	assert.Len(t, g.nodes, g.opts.TableSize())
	assert.Equal(t, slot.Nil, g.freeNode)
	assert.Zero(t, g.numFree)
	for _, n := range g.nodes {
		assert.Equal(t, slot.Nil, n.Next)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	src, err := New[int](func(o *grid.Options) { o.CellSize = 10; o.TableBits = 8 })
	require.NoError(t, err)

	bounds := []grid.Bounds{
		{X: 0, Y: 0, W: 25, H: 25},
		{X: 5, Y: 5, W: 10, H: 10},
		{X: -40, Y: 12, W: 8, H: 60},
	}
	handles := make([]grid.Handle, len(bounds))
	for i, b := range bounds {
		handles[i] = src.Insert(i, b)
	}
	// A hole in the element pool must survive the round trip.
	src.Remove(handles[1], bounds[1])

	data, err := src.SnapshotState()
	require.NoError(t, err)

	dst, err := New[int]() // deliberately different options
	require.NoError(t, err)
	require.NoError(t, dst.RestoreState(data))

	assert.Equal(t, src.Options(), dst.Options())
	assert.Equal(t, src.Len(), dst.Len())

	for _, q := range []grid.Bounds{
		{X: 0, Y: 0, W: 100, H: 100},
		{X: -45, Y: 0, W: 20, H: 100},
		{X: 500, Y: 500, W: 10, H: 10},
	} {
		assert.ElementsMatch(t, src.Query(q, nil), dst.Query(q, nil), "query %+v", q)
	}

	// The restored free lists must keep working.
	h := dst.Insert(99, bounds[1])
	assert.Equal(t, handles[1], h)
	dst.Remove(handles[0], bounds[0])
	assert.ElementsMatch(t, []int{99}, dst.Query(bounds[1], nil))
}

func TestRestoreRejectsGarbage(t *testing.T) {
	g, err := New[int]()
	require.NoError(t, err)

	require.Error(t, g.RestoreState([]byte("not a snapshot")))
}

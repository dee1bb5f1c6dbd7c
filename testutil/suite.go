package testutil

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fynwin/zgrid/grid"
)

// Factory builds a fresh index for the conformance suite.
type Factory func(t *testing.T, optFns ...func(*grid.Options)) grid.Index[int]

// RunIndexSuite runs the contract tests every bucket store must pass.
func RunIndexSuite(t *testing.T, newIndex Factory) {
	t.Run("Scenario", func(t *testing.T) { testScenario(t, newIndex) })
	t.Run("NoDuplicates", func(t *testing.T) { testNoDuplicates(t, newIndex) })
	t.Run("RemovedNeverReturned", func(t *testing.T) { testRemovedNeverReturned(t, newIndex) })
	t.Run("UpdateEquivalence", func(t *testing.T) { testUpdateEquivalence(t, newIndex) })
	t.Run("DedupScratchReset", func(t *testing.T) { testDedupScratchReset(t, newIndex) })
	t.Run("NegativeCoordinates", func(t *testing.T) { testNegativeCoordinates(t, newIndex) })
	t.Run("PointQuery", func(t *testing.T) { testPointQuery(t, newIndex) })
	t.Run("VisitEarlyStop", func(t *testing.T) { testVisitEarlyStop(t, newIndex) })
	t.Run("CellsVariants", func(t *testing.T) { testCellsVariants(t, newIndex) })
	t.Run("HandlesAndBitmap", func(t *testing.T) { testHandlesAndBitmap(t, newIndex) })
	t.Run("ClearAndReserve", func(t *testing.T) { testClearAndReserve(t, newIndex) })
	t.Run("RandomizedAgainstNaive", func(t *testing.T) { testRandomizedAgainstNaive(t, newIndex) })
}

func withCellSize(size int32) func(*grid.Options) {
	return func(o *grid.Options) { o.CellSize = size }
}

// testScenario pins the worked example: two boxes sharing a cell, then
// remove and update.
func testScenario(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))

	a := g.Insert(1, grid.Bounds{X: 0, Y: 0, W: 10, H: 10})
	require.NotEqual(t, grid.None, a)
	assert.ElementsMatch(t, []int{1}, g.Query(grid.Bounds{X: 0, Y: 0, W: 10, H: 10}, nil))

	// B overlaps cells (0,0), (0,1), (1,0), (1,1) with 10-unit cells.
	b := g.Insert(2, grid.Bounds{X: 5, Y: 5, W: 10, H: 10})
	assert.ElementsMatch(t, []int{1, 2}, g.Query(grid.Bounds{X: 0, Y: 0, W: 1, H: 1}, nil))

	g.Remove(a, grid.Bounds{X: 0, Y: 0, W: 10, H: 10})
	assert.ElementsMatch(t, []int{2}, g.Query(grid.Bounds{X: 0, Y: 0, W: 10, H: 10}, nil))

	g.Update(b, grid.Bounds{X: 5, Y: 5, W: 10, H: 10}, grid.Bounds{X: 100, Y: 100, W: 10, H: 10})
	assert.Empty(t, g.Query(grid.Bounds{X: 0, Y: 0, W: 10, H: 10}, nil))
	assert.ElementsMatch(t, []int{2}, g.Query(grid.Bounds{X: 100, Y: 100, W: 10, H: 10}, nil))
}

// testNoDuplicates covers one element occupying many buckets.
func testNoDuplicates(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))

	big := grid.Bounds{X: 0, Y: 0, W: 95, H: 95} // 10x10 cells
	g.Insert(7, big)
	g.Insert(8, grid.Bounds{X: 42, Y: 42, W: 30, H: 3})

	got := g.Query(grid.Bounds{X: 0, Y: 0, W: 200, H: 200}, nil)
	assert.ElementsMatch(t, []int{7, 8}, got)

	count := 0
	g.Visit(big, func(int) bool { count++; return true })
	assert.Equal(t, 2, count)
}

func testRemovedNeverReturned(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))
	everything := grid.Bounds{X: -50, Y: -50, W: 300, H: 300}

	bounds := []grid.Bounds{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 5, Y: 5, W: 10, H: 10},
		{X: 95, Y: 95, W: 25, H: 25},
		{X: -20, Y: 3, W: 40, H: 4},
	}
	handles := make([]grid.Handle, len(bounds))
	for i, b := range bounds {
		handles[i] = g.Insert(i, b)
	}

	for i, b := range bounds {
		g.Remove(handles[i], b)

		got := g.Query(everything, nil)
		assert.NotContains(t, got, i)
		assert.Len(t, got, len(bounds)-i-1)
	}
	assert.Zero(t, g.Len())
}

// testUpdateEquivalence checks update against remove plus fresh insert.
func testUpdateEquivalence(t *testing.T, newIndex Factory) {
	old := grid.Bounds{X: 5, Y: 5, W: 30, H: 30}
	next := grid.Bounds{X: 210, Y: -35, W: 12, H: 50}
	probe := []grid.Bounds{old, next, {X: 0, Y: 0, W: 300, H: 300}, {X: 205, Y: -40, W: 4, H: 4}}

	updated := newIndex(t, withCellSize(10))
	hu := updated.Insert(1, old)
	updated.Insert(2, grid.Bounds{X: 50, Y: 50, W: 10, H: 10})
	updated.Update(hu, old, next)

	reinserted := newIndex(t, withCellSize(10))
	hr := reinserted.Insert(1, old)
	reinserted.Insert(2, grid.Bounds{X: 50, Y: 50, W: 10, H: 10})
	reinserted.Remove(hr, old)
	reinserted.Insert(1, next)

	for _, p := range probe {
		assert.ElementsMatch(t, updated.Query(p, nil), reinserted.Query(p, nil), "probe %+v", p)
	}
}

// testDedupScratchReset verifies no seen-markers leak between queries: a
// query for a disjoint region right after a large one returns only its own
// overlaps.
func testDedupScratchReset(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))

	g.Insert(1, grid.Bounds{X: 0, Y: 0, W: 60, H: 60})
	g.Insert(2, grid.Bounds{X: 30, Y: 30, W: 60, H: 60})
	g.Insert(3, grid.Bounds{X: 500, Y: 500, W: 10, H: 10})

	assert.ElementsMatch(t, []int{1, 2}, g.Query(grid.Bounds{X: 0, Y: 0, W: 100, H: 100}, nil))
	assert.ElementsMatch(t, []int{3}, g.Query(grid.Bounds{X: 495, Y: 495, W: 20, H: 20}, nil))
	// And again: the second reset must be as clean as the first.
	assert.ElementsMatch(t, []int{1, 2}, g.Query(grid.Bounds{X: 0, Y: 0, W: 100, H: 100}, nil))
}

// testNegativeCoordinates pins the floor-division policy for boxes left of
// or above the origin.
func testNegativeCoordinates(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))

	h := g.Insert(1, grid.Bounds{X: -25, Y: -25, W: 10, H: 10})
	g.Insert(2, grid.Bounds{X: -5, Y: -5, W: 10, H: 10}) // straddles the origin

	assert.ElementsMatch(t, []int{1}, g.Query(grid.Bounds{X: -30, Y: -30, W: 12, H: 12}, nil))
	assert.ElementsMatch(t, []int{2}, g.Query(grid.Bounds{X: 2, Y: 2, W: 1, H: 1}, nil))
	assert.ElementsMatch(t, []int{2}, g.Query(grid.Bounds{X: -2, Y: -2, W: 1, H: 1}, nil))

	// A box in cell (-1,-1) only must not appear in cell (0,0) queries:
	// floor division keeps it out of the extra row truncation would add.
	g.Insert(3, grid.Bounds{X: -8, Y: -8, W: 2, H: 2})
	assert.NotContains(t, g.Query(grid.Bounds{X: 1, Y: 1, W: 8, H: 8}, nil), 3)

	g.Remove(h, grid.Bounds{X: -25, Y: -25, W: 10, H: 10})
	assert.Empty(t, g.Query(grid.Bounds{X: -30, Y: -30, W: 12, H: 12}, nil))
}

func testPointQuery(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))

	g.Insert(1, grid.Bounds{X: 0, Y: 0, W: 10, H: 10})
	g.Insert(2, grid.Bounds{X: 35, Y: 35, W: 2, H: 2})

	assert.ElementsMatch(t, []int{1}, g.QueryAt(4, 4, nil))
	assert.ElementsMatch(t, []int{2}, g.QueryAt(36, 36, nil))
	assert.Empty(t, g.QueryAt(75, 75, nil))

	var seen []int
	g.VisitAt(36, 36, func(v int) bool { seen = append(seen, v); return true })
	assert.Equal(t, []int{2}, seen)
}

func testVisitEarlyStop(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))
	for i := 0; i < 5; i++ {
		g.Insert(i, grid.Bounds{X: int32(i) * 30, Y: 0, W: 5, H: 5})
	}

	calls := 0
	g.Visit(grid.Bounds{X: 0, Y: 0, W: 300, H: 300}, func(int) bool {
		calls++
		return calls < 2
	})
	assert.Equal(t, 2, calls)
}

// testCellsVariants checks the pre-scaled overloads against their world
// counterparts.
func testCellsVariants(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))

	b := grid.Bounds{X: 12, Y: 34, W: 25, H: 8}
	cb := g.CellBoundsOf(b)
	assert.Equal(t, grid.CellBounds{XStart: 1, XEnd: 3, YStart: 3, YEnd: 4}, cb)
	assert.Equal(t, 6, cb.Span())

	h := g.InsertCells(9, cb)
	assert.ElementsMatch(t, []int{9}, g.Query(b, nil))

	next := grid.Bounds{X: 300, Y: 300, W: 5, H: 5}
	g.UpdateCells(h, cb, g.CellBoundsOf(next))
	assert.Empty(t, g.Query(b, nil))
	assert.ElementsMatch(t, []int{9}, g.Query(next, nil))

	g.RemoveCells(h, g.CellBoundsOf(next))
	assert.Empty(t, g.Query(next, nil))
	assert.Zero(t, g.Len())
}

func testHandlesAndBitmap(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))

	h1 := g.Insert(10, grid.Bounds{X: 0, Y: 0, W: 15, H: 15})
	h2 := g.Insert(20, grid.Bounds{X: 5, Y: 5, W: 15, H: 15})
	g.Insert(30, grid.Bounds{X: 400, Y: 400, W: 5, H: 5})

	region := grid.Bounds{X: 0, Y: 0, W: 20, H: 20}

	handles := g.QueryHandles(region, nil)
	assert.ElementsMatch(t, []grid.Handle{h1, h2}, handles)
	for _, h := range handles {
		assert.Contains(t, []int{10, 20}, *g.At(h))
	}

	bm := g.QueryBitmap(region)
	assert.Equal(t, uint64(2), bm.GetCardinality())
	assert.True(t, bm.Contains(uint32(h1)))
	assert.True(t, bm.Contains(uint32(h2)))

	// Bitmaps from disjoint regions support set algebra on handles.
	other := g.QueryBitmap(grid.Bounds{X: 395, Y: 395, W: 20, H: 20})
	assert.Equal(t, uint64(0), roaring.And(bm, other).GetCardinality())
}

func testClearAndReserve(t *testing.T, newIndex Factory) {
	g := newIndex(t, withCellSize(10))
	g.Reserve(128)

	for i := 0; i < 64; i++ {
		g.Insert(i, grid.Bounds{X: int32(i % 8 * 20), Y: int32(i / 8 * 20), W: 15, H: 15})
	}
	require.Equal(t, 64, g.Len())

	stats := g.Stats()
	assert.Equal(t, 64, stats.Elements)
	assert.GreaterOrEqual(t, stats.HighWater, 64)
	assert.GreaterOrEqual(t, stats.BucketEntries, 64)

	g.Clear()
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Query(grid.Bounds{X: 0, Y: 0, W: 200, H: 200}, nil))

	// The grid is usable after Clear and handles restart from the pool base.
	h := g.Insert(99, grid.Bounds{X: 0, Y: 0, W: 10, H: 10})
	assert.Equal(t, grid.Handle(0), h)
	assert.ElementsMatch(t, []int{99}, g.Query(grid.Bounds{X: 0, Y: 0, W: 10, H: 10}, nil))
}

// testRandomizedAgainstNaive churns the grid through random inserts,
// updates and removes and cross-checks every query against the O(n)
// reference. The world stays inside 128x128 cells so the 16-bit bucket
// table introduces no aliasing and results must match exactly.
func testRandomizedAgainstNaive(t *testing.T, newIndex Factory) {
	const (
		cellSize  = 16
		worldSize = 2000
		maxExtent = 60
		steps     = 4000
	)

	rng := NewRNG(42)
	g := newIndex(t, withCellSize(cellSize))
	ref := NewNaive[int](cellSize)

	type live struct {
		gh     grid.Handle
		nh     grid.Handle
		bounds grid.Bounds
	}
	var elems []live
	nextVal := 0

	for step := 0; step < steps; step++ {
		switch op := rng.Intn(10); {
		case op < 4 || len(elems) == 0: // insert
			b := rng.Bounds(worldSize, maxExtent)
			elems = append(elems, live{
				gh:     g.Insert(nextVal, b),
				nh:     ref.Insert(nextVal, b),
				bounds: b,
			})
			nextVal++
		case op < 6: // remove
			i := rng.Intn(len(elems))
			e := elems[i]
			g.Remove(e.gh, e.bounds)
			ref.Remove(e.nh)
			elems[i] = elems[len(elems)-1]
			elems = elems[:len(elems)-1]
		case op < 8: // update
			i := rng.Intn(len(elems))
			b := rng.Bounds(worldSize, maxExtent)
			g.Update(elems[i].gh, elems[i].bounds, b)
			ref.Update(elems[i].nh, b)
			elems[i].bounds = b
		default: // query
			q := rng.Bounds(worldSize, 300)
			assert.ElementsMatch(t, ref.Query(q), g.Query(q, nil), "step %d query %+v", step, q)
		}
	}

	require.Equal(t, ref.Len(), g.Len())
	full := grid.Bounds{X: 0, Y: 0, W: worldSize + maxExtent, H: worldSize + maxExtent}
	assert.ElementsMatch(t, ref.Query(full), g.Query(full, nil))
}

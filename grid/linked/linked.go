// Package linked implements the zgrid bucket store as singly linked
// membership lists threaded through one shared node pool.
//
// The bucket table occupies the first 2^TableBits entries of the node slice
// and never moves; list nodes and the free list live in the same slice past
// it. Local density is unbounded at the cost of pointer-chasing lookups; see
// the dense package for the locality-first alternative.
package linked

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/fynwin/zgrid/grid"
	"github.com/fynwin/zgrid/internal/debug"
	"github.com/fynwin/zgrid/internal/slot"
	"github.com/fynwin/zgrid/internal/visited"
	"github.com/fynwin/zgrid/internal/zorder"
)

// Compile-time checks to ensure Grid satisfies the store contracts.
var (
	_ grid.Index[int]  = (*Grid[int])(nil)
	_ grid.Snapshotter = (*Grid[int])(nil)
)

// node is one membership entry: a link from a bucket to an element handle.
// The first tableSize nodes are bucket heads whose Element field is unused.
// Next threads either the bucket's list or the free list.
type node struct {
	Element int32
	Next    int32
}

// Grid is the shared-pool bucket store. Not safe for concurrent use; queries
// mutate per-instance scratch state.
type Grid[T any] struct {
	opts grid.Options
	mask uint64

	elements slot.Pool[T]
	nodes    []node
	freeNode int32
	numFree  int

	seen    *visited.Set
	scratch []int32
}

// New creates a linked-store grid. Options default to grid.DefaultOptions.
func New[T any](optFns ...func(o *grid.Options)) (*Grid[T], error) {
	opts := grid.DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	g := &Grid[T]{
		opts:     opts,
		mask:     opts.TableMask(),
		elements: slot.New[T](),
		nodes:    make([]node, opts.TableSize()),
		freeNode: slot.Nil,
		seen:     visited.New(0),
	}
	g.resetHeads()

	return g, nil
}

func (g *Grid[T]) resetHeads() {
	for i := range g.nodes {
		g.nodes[i] = node{Element: slot.Nil, Next: slot.Nil}
	}
}

// Options returns the construction options.
func (g *Grid[T]) Options() grid.Options {
	return g.opts
}

// CellBoundsOf scales world bounds by the configured cell size.
func (g *Grid[T]) CellBoundsOf(b grid.Bounds) grid.CellBounds {
	return grid.CellBoundsOf(b, g.opts.CellSize)
}

// Insert stores value and links it into every bucket covered by b.
func (g *Grid[T]) Insert(value T, b grid.Bounds) grid.Handle {
	return g.InsertCells(value, g.CellBoundsOf(b))
}

// InsertCells is Insert with a pre-scaled cell range.
func (g *Grid[T]) InsertCells(value T, cb grid.CellBounds) grid.Handle {
	h := g.elements.Alloc(value)

	for cy := cb.YStart; cy <= cb.YEnd; cy++ {
		for cx := cb.XStart; cx <= cb.XEnd; cx++ {
			g.link(zorder.Index(cx, cy, g.mask), h)
		}
	}

	g.seen.Grow(g.elements.Cap())

	return grid.Handle(h)
}

// Remove unlinks the handle from every bucket covered by b and releases its
// slot. b must be the bounds most recently associated with h.
func (g *Grid[T]) Remove(h grid.Handle, b grid.Bounds) {
	g.RemoveCells(h, g.CellBoundsOf(b))
}

// RemoveCells is Remove with a pre-scaled cell range.
func (g *Grid[T]) RemoveCells(h grid.Handle, cb grid.CellBounds) {
	for cy := cb.YStart; cy <= cb.YEnd; cy++ {
		for cx := cb.XStart; cx <= cb.XEnd; cx++ {
			g.unlink(zorder.Index(cx, cy, g.mask), int32(h))
		}
	}

	g.elements.Release(int32(h))
}

// Update relocates the handle from oldBounds to newBounds. Always a full
// unlink+link: computing the intersecting cell subset measures no faster for
// cells near the average object size.
func (g *Grid[T]) Update(h grid.Handle, oldBounds, newBounds grid.Bounds) {
	g.UpdateCells(h, g.CellBoundsOf(oldBounds), g.CellBoundsOf(newBounds))
}

// UpdateCells is Update with pre-scaled cell ranges.
func (g *Grid[T]) UpdateCells(h grid.Handle, oldCells, newCells grid.CellBounds) {
	for cy := oldCells.YStart; cy <= oldCells.YEnd; cy++ {
		for cx := oldCells.XStart; cx <= oldCells.XEnd; cx++ {
			g.unlink(zorder.Index(cx, cy, g.mask), int32(h))
		}
	}

	for cy := newCells.YStart; cy <= newCells.YEnd; cy++ {
		for cx := newCells.XStart; cx <= newCells.XEnd; cx++ {
			g.link(zorder.Index(cx, cy, g.mask), int32(h))
		}
	}
}

// link prepends a membership entry to the bucket's list, reusing a freed
// node when one exists.
func (g *Grid[T]) link(bucket uint64, h int32) {
	if g.freeNode != slot.Nil {
		n := g.freeNode
		g.freeNode = g.nodes[n].Next
		g.numFree--
		g.nodes[n] = node{Element: h, Next: g.nodes[bucket].Next}
		g.nodes[bucket].Next = n
		return
	}

	g.nodes = append(g.nodes, node{Element: h, Next: g.nodes[bucket].Next})
	g.nodes[bucket].Next = int32(len(g.nodes)) - 1
}

// unlink splices the entry for h out of the bucket's list and recycles it.
// An absent handle is a silent no-op in release builds; under the zgriddebug
// tag it fails fast, since silently missing entries mask mismatched bounds
// on Remove/Update.
func (g *Grid[T]) unlink(bucket uint64, h int32) {
	prev := int32(bucket)
	cur := g.nodes[prev].Next

	for cur != slot.Nil && g.nodes[cur].Element != h {
		prev, cur = cur, g.nodes[cur].Next
	}

	if cur == slot.Nil {
		debug.Assert(false, "unlink: handle not present in bucket, bounds mismatch?")
		return
	}

	g.nodes[prev].Next = g.nodes[cur].Next
	g.nodes[cur].Next = g.freeNode
	g.freeNode = cur
	g.numFree++
}

// collect walks every bucket in the range and gathers each live handle
// exactly once into the scratch list. The seen markers are restored before
// returning; only the handles gathered are cleared.
func (g *Grid[T]) collect(cb grid.CellBounds) []int32 {
	g.scratch = g.scratch[:0]

	for cy := cb.YStart; cy <= cb.YEnd; cy++ {
		for cx := cb.XStart; cx <= cb.XEnd; cx++ {
			g.collectBucket(zorder.Index(cx, cy, g.mask))
		}
	}

	g.seen.Reset()

	return g.scratch
}

func (g *Grid[T]) collectBucket(bucket uint64) {
	for n := g.nodes[bucket].Next; n != slot.Nil; n = g.nodes[n].Next {
		if h := g.nodes[n].Element; !g.seen.TestAndSet(h) {
			g.scratch = append(g.scratch, h)
		}
	}
}

// Query appends the payload of every element overlapping b to dst. Results
// are candidates: bounded table width aliases distant regions into shared
// buckets, so exact callers re-check with Bounds.Intersects.
func (g *Grid[T]) Query(b grid.Bounds, dst []T) []T {
	for _, h := range g.collect(g.CellBoundsOf(b)) {
		dst = append(dst, *g.elements.At(h))
	}
	return dst
}

// QueryAt queries the single cell containing the world point (x, y).
func (g *Grid[T]) QueryAt(x, y int32, dst []T) []T {
	for _, h := range g.collect(g.pointCells(x, y)) {
		dst = append(dst, *g.elements.At(h))
	}
	return dst
}

// QueryHandles is Query but collects handles.
func (g *Grid[T]) QueryHandles(b grid.Bounds, dst []grid.Handle) []grid.Handle {
	for _, h := range g.collect(g.CellBoundsOf(b)) {
		dst = append(dst, grid.Handle(h))
	}
	return dst
}

// QueryBitmap returns the matching handles as a Roaring bitmap. The bitmap
// deduplicates on its own, so the shared seen scratch is untouched.
func (g *Grid[T]) QueryBitmap(b grid.Bounds) *roaring.Bitmap {
	bm := roaring.New()
	cb := g.CellBoundsOf(b)

	for cy := cb.YStart; cy <= cb.YEnd; cy++ {
		for cx := cb.XStart; cx <= cb.XEnd; cx++ {
			bucket := zorder.Index(cx, cy, g.mask)
			for n := g.nodes[bucket].Next; n != slot.Nil; n = g.nodes[n].Next {
				bm.Add(uint32(g.nodes[n].Element))
			}
		}
	}

	return bm
}

// Visit streams each unique matching payload to fn. Returning false stops
// the traversal early.
func (g *Grid[T]) Visit(b grid.Bounds, fn func(T) bool) {
	for _, h := range g.collect(g.CellBoundsOf(b)) {
		if !fn(*g.elements.At(h)) {
			return
		}
	}
}

// VisitAt visits the single cell containing the world point (x, y).
func (g *Grid[T]) VisitAt(x, y int32, fn func(T) bool) {
	for _, h := range g.collect(g.pointCells(x, y)) {
		if !fn(*g.elements.At(h)) {
			return
		}
	}
}

func (g *Grid[T]) pointCells(x, y int32) grid.CellBounds {
	cb := grid.CellBoundsOf(grid.Bounds{X: x, Y: y}, g.opts.CellSize)
	return cb
}

// At returns a pointer to the payload stored under a live handle.
func (g *Grid[T]) At(h grid.Handle) *T {
	return g.elements.At(int32(h))
}

// Clear discards all elements and memberships and resets the pools.
func (g *Grid[T]) Clear() {
	g.elements.Clear()
	g.nodes = g.nodes[:g.opts.TableSize()]
	g.resetHeads()
	g.freeNode = slot.Nil
	g.numFree = 0
	g.scratch = g.scratch[:0]
}

// Reserve pre-grows element and node storage for at least n elements.
func (g *Grid[T]) Reserve(n int) {
	g.elements.Reserve(n)
	g.seen.Grow(n)

	want := g.opts.TableSize() + n
	if want > cap(g.nodes) {
		nodes := make([]node, len(g.nodes), want)
		copy(nodes, g.nodes)
		g.nodes = nodes
	}
}

// Len returns the number of live elements.
func (g *Grid[T]) Len() int {
	return g.elements.Len()
}

// Stats returns storage counters.
func (g *Grid[T]) Stats() grid.Stats {
	return grid.Stats{
		Elements:          g.elements.Len(),
		HighWater:         g.elements.Cap(),
		FreeSlots:         g.elements.FreeLen(),
		BucketEntries:     len(g.nodes) - g.opts.TableSize() - g.numFree,
		FreeBucketEntries: g.numFree,
	}
}

// Package dense implements the zgrid bucket store as a fixed-capacity inline
// entry array per bucket plus one instance-owned overflow list.
//
// The common case (local density at or below InlineCapacity) touches a
// single contiguous row per bucket. Density spikes spill to the overflow
// list, where every entry carries a back-reference to its owning bucket and
// lookups degrade to a linear scan of the (typically tiny) spill. Same
// contract as the linked package, opposite trade-off.
package dense

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

// spill is an overflow membership entry. Bucket is the back-reference used
// to filter the shared list during per-bucket scans.
type spill struct {
	Bucket uint32
	Handle int32
}

// Grid is the inline-array bucket store. Not safe for concurrent use;
// queries mutate per-instance scratch state.
type Grid[T any] struct {
	opts      grid.Options
	mask      uint64
	inlineCap int32

	elements slot.Pool[T]
	counts   []int32 // live inline entries per bucket
	inline   []int32 // tableSize rows of inlineCap handles
	overflow []spill

	seen    *visited.Set
	scratch []int32
}

// New creates a dense-store grid. Options default to grid.DefaultOptions.
func New[T any](optFns ...func(o *grid.Options)) (*Grid[T], error) {
	opts := grid.DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Grid[T]{
		opts:      opts,
		mask:      opts.TableMask(),
		inlineCap: int32(opts.InlineCapacity),
		elements:  slot.New[T](),
		counts:    make([]int32, opts.TableSize()),
		inline:    make([]int32, opts.TableSize()*opts.InlineCapacity),
		seen:      visited.New(0),
	}, nil
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

// Update relocates the handle from oldBounds to newBounds; always a full
// unlink+link, no intersection diff.
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

// link appends into the bucket's inline row while space remains, else to the
// overflow list.
func (g *Grid[T]) link(bucket uint64, h int32) {
	if c := g.counts[bucket]; c < g.inlineCap {
		g.inline[int32(bucket)*g.inlineCap+c] = h
		g.counts[bucket] = c + 1
		return
	}

	g.overflow = append(g.overflow, spill{Bucket: uint32(bucket), Handle: h})
}

// unlink swap-removes from the inline row, falling back to the overflow
// list. An absent handle is a silent no-op in release builds and fails fast
// under the zgriddebug tag.
func (g *Grid[T]) unlink(bucket uint64, h int32) {
	row := int32(bucket) * g.inlineCap
	c := g.counts[bucket]

	for i := int32(0); i < c; i++ {
		if g.inline[row+i] == h {
			g.inline[row+i] = g.inline[row+c-1]
			g.counts[bucket] = c - 1
			return
		}
	}

	for i, s := range g.overflow {
		if s.Bucket == uint32(bucket) && s.Handle == h {
			last := len(g.overflow) - 1
			g.overflow[i] = g.overflow[last]
			g.overflow = g.overflow[:last]
			return
		}
	}

	debug.Assert(false, "unlink: handle not present in bucket, bounds mismatch?")
}

// collect walks every bucket in the range and gathers each live handle
// exactly once into the scratch list, restoring the seen markers before
// returning.
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
	row := int32(bucket) * g.inlineCap
	for i := int32(0); i < g.counts[bucket]; i++ {
		if h := g.inline[row+i]; !g.seen.TestAndSet(h) {
			g.scratch = append(g.scratch, h)
		}
	}

	for _, s := range g.overflow {
		if s.Bucket != uint32(bucket) {
			continue
		}
		if !g.seen.TestAndSet(s.Handle) {
			g.scratch = append(g.scratch, s.Handle)
		}
	}
}

// Query appends the payload of every element overlapping b to dst. Results
// are candidates; exact callers re-check with Bounds.Intersects.
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

// QueryBitmap returns the matching handles as a Roaring bitmap.
func (g *Grid[T]) QueryBitmap(b grid.Bounds) *roaring.Bitmap {
	bm := roaring.New()
	cb := g.CellBoundsOf(b)

	for cy := cb.YStart; cy <= cb.YEnd; cy++ {
		for cx := cb.XStart; cx <= cb.XEnd; cx++ {
			bucket := zorder.Index(cx, cy, g.mask)
			row := int32(bucket) * g.inlineCap
			for i := int32(0); i < g.counts[bucket]; i++ {
				bm.Add(uint32(g.inline[row+i]))
			}
			for _, s := range g.overflow {
				if s.Bucket == uint32(bucket) {
					bm.Add(uint32(s.Handle))
				}
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
	return grid.CellBoundsOf(grid.Bounds{X: x, Y: y}, g.opts.CellSize)
}

// At returns a pointer to the payload stored under a live handle.
func (g *Grid[T]) At(h grid.Handle) *T {
	return g.elements.At(int32(h))
}

// Clear discards all elements and memberships and resets the pools.
func (g *Grid[T]) Clear() {
	g.elements.Clear()
	clear(g.counts)
	g.overflow = g.overflow[:0]
	g.scratch = g.scratch[:0]
}

// Reserve pre-grows element storage for at least n elements.
func (g *Grid[T]) Reserve(n int) {
	g.elements.Reserve(n)
	g.seen.Grow(n)
}

// Len returns the number of live elements.
func (g *Grid[T]) Len() int {
	return g.elements.Len()
}

// Stats returns storage counters.
func (g *Grid[T]) Stats() grid.Stats {
	inline := 0
	for _, c := range g.counts {
		inline += int(c)
	}
	return grid.Stats{
		Elements:      g.elements.Len(),
		HighWater:     g.elements.Cap(),
		FreeSlots:     g.elements.FreeLen(),
		BucketEntries: inline + len(g.overflow),
		Overflow:      len(g.overflow),
	}
}

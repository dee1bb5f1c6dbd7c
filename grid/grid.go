// Package grid defines the contract shared by the zgrid bucket stores.
//
// A grid maps axis-aligned integer bounding boxes onto a fixed table of
// buckets addressed by a Z-order (Morton) index. Implementations of Index
// live in the subpackages linked and dense; both satisfy the same contract
// and differ only in how bucket membership is stored.
package grid

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Handle identifies one inserted element for the lifetime of that element.
// Handles are small non-negative integers and are reused after Remove.
type Handle int32

// None is the invalid handle sentinel.
const None Handle = -1

// Bounds is an axis-aligned rectangle in world coordinates. W and H must be
// non-negative. The grid copies bounds values and never retains a reference.
type Bounds struct {
	X, Y, W, H int32
}

// Intersects reports whether b and o overlap. Query results are candidates
// that may include aliased neighbors from distant world regions; callers
// that need an exact answer re-check each result with this test.
func (b Bounds) Intersects(o Bounds) bool {
	return b.X <= o.X+o.W && o.X <= b.X+b.W &&
		b.Y <= o.Y+o.H && o.Y <= b.Y+b.H
}

// CellBounds is a closed inclusive range of cell coordinates covering a
// Bounds after division by the cell size.
type CellBounds struct {
	XStart, XEnd, YStart, YEnd int32
}

// Span returns the number of cells covered by the range.
func (cb CellBounds) Span() int {
	return int(cb.XEnd-cb.XStart+1) * int(cb.YEnd-cb.YStart+1)
}

// CellBoundsOf scales world bounds to cell coordinates using floor division,
// so boxes extending left of or above the origin land in negative cells
// instead of folding into cell 0. The same bounds always produce the same
// range; callers must pass the bounds most recently associated with a handle
// to Remove and Update.
func CellBoundsOf(b Bounds, cellSize int32) CellBounds {
	return CellBounds{
		XStart: floorDiv(b.X, cellSize),
		XEnd:   floorDiv(b.X+b.W, cellSize),
		YStart: floorDiv(b.Y, cellSize),
		YEnd:   floorDiv(b.Y+b.H, cellSize),
	}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Stats exposes storage counters for tuning and tests.
type Stats struct {
	// Elements is the number of live elements.
	Elements int
	// HighWater is the number of element slots ever allocated; storage never
	// shrinks below it except through Clear.
	HighWater int
	// FreeSlots is the length of the element free list.
	FreeSlots int
	// BucketEntries is the number of live bucket membership entries.
	BucketEntries int
	// FreeBucketEntries is the length of the membership entry free list
	// (always zero for the dense store).
	FreeBucketEntries int
	// Overflow is the number of entries spilled past the inline capacity
	// (always zero for the linked store).
	Overflow int
}

// Index is a bucketed spatial index over payloads of type T.
//
// Implementations are single-threaded: no operation may run concurrently
// with any other on the same instance, queries included, because queries
// share per-instance scratch state. Use one instance per goroutine or the
// Sharded wrapper in the root package.
type Index[T any] interface {
	// Insert stores value and links it into every bucket covered by b.
	Insert(value T, b Bounds) Handle
	// InsertCells is Insert with a pre-scaled cell range.
	InsertCells(value T, cb CellBounds) Handle

	// Remove unlinks the handle from every bucket covered by b and releases
	// its slot. b must be the bounds most recently associated with h; the
	// handle must not be used afterwards.
	Remove(h Handle, b Bounds)
	// RemoveCells is Remove with a pre-scaled cell range.
	RemoveCells(h Handle, cb CellBounds)

	// Update relocates the handle from oldBounds to newBounds. It is exactly
	// unlink-from-old followed by link-into-new; the handle is unchanged.
	Update(h Handle, oldBounds, newBounds Bounds)
	// UpdateCells is Update with pre-scaled cell ranges.
	UpdateCells(h Handle, oldCells, newCells CellBounds)

	// Query appends the payload of every element overlapping b to dst and
	// returns the extended slice. Each matching element appears exactly once,
	// in unspecified order.
	Query(b Bounds, dst []T) []T
	// QueryAt queries the single cell containing the world point (x, y).
	QueryAt(x, y int32, dst []T) []T
	// QueryHandles is Query but collects handles instead of payloads.
	QueryHandles(b Bounds, dst []Handle) []Handle
	// QueryBitmap returns the matching handles as a Roaring bitmap, useful
	// for set algebra between region queries.
	QueryBitmap(b Bounds) *roaring.Bitmap

	// Visit streams each unique matching payload to fn without allocating.
	// Returning false from fn stops the traversal early.
	Visit(b Bounds, fn func(T) bool)
	// VisitAt visits the single cell containing the world point (x, y).
	VisitAt(x, y int32, fn func(T) bool)

	// At returns a pointer to the payload stored under a live handle. The
	// pointer is invalidated by the next mutation.
	At(h Handle) *T

	// CellBoundsOf scales world bounds by the configured cell size.
	CellBoundsOf(b Bounds) CellBounds

	// Clear discards all elements and bucket memberships and resets the
	// pools to empty.
	Clear()
	// Reserve pre-grows storage for at least n elements.
	Reserve(n int)
	// Len returns the number of live elements.
	Len() int
	// Stats returns storage counters.
	Stats() Stats
}

// Snapshotter is implemented by stores whose full state can be captured and
// restored. The root package wraps these in a checksummed, compressed
// container format.
type Snapshotter interface {
	// SnapshotState encodes the complete store state.
	SnapshotState() ([]byte, error)
	// RestoreState replaces the store state with a previously captured one.
	// The store's own options are replaced by the snapshot's.
	RestoreState(data []byte) error
}

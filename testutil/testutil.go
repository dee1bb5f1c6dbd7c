// Package testutil provides shared helpers for zgrid tests: a seeded RNG, a
// naive reference index, and a conformance suite run against every bucket
// store implementation.
package testutil

import (
	"math/rand"

	"github.com/fynwin/zgrid/grid"
)

// RNG wraps a seeded random source for reproducible test data.
type RNG struct {
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	return r.rand.Intn(n)
}

// Bounds returns a random box inside [0,worldSize)² with extents in
// [1,maxExtent].
func (r *RNG) Bounds(worldSize, maxExtent int32) grid.Bounds {
	return grid.Bounds{
		X: int32(r.rand.Intn(int(worldSize))),
		Y: int32(r.rand.Intn(int(worldSize))),
		W: 1 + int32(r.rand.Intn(int(maxExtent))),
		H: 1 + int32(r.rand.Intn(int(maxExtent))),
	}
}

// Naive is the O(n) reference the grids are checked against: a flat list of
// live entries matched by cell-range overlap, the same membership rule the
// grids implement.
type Naive[T any] struct {
	cellSize int32
	entries  map[grid.Handle]naiveEntry[T]
	next     grid.Handle
}

type naiveEntry[T any] struct {
	value T
	cells grid.CellBounds
}

// NewNaive creates a reference index with the given cell size.
func NewNaive[T any](cellSize int32) *Naive[T] {
	return &Naive[T]{
		cellSize: cellSize,
		entries:  make(map[grid.Handle]naiveEntry[T]),
	}
}

// Insert stores value under a fresh handle.
func (n *Naive[T]) Insert(value T, b grid.Bounds) grid.Handle {
	h := n.next
	n.next++
	n.entries[h] = naiveEntry[T]{value: value, cells: grid.CellBoundsOf(b, n.cellSize)}
	return h
}

// Remove deletes the entry.
func (n *Naive[T]) Remove(h grid.Handle) {
	delete(n.entries, h)
}

// Update replaces the entry's bounds.
func (n *Naive[T]) Update(h grid.Handle, b grid.Bounds) {
	e := n.entries[h]
	e.cells = grid.CellBoundsOf(b, n.cellSize)
	n.entries[h] = e
}

// Query returns every value whose cell range intersects that of b.
func (n *Naive[T]) Query(b grid.Bounds) []T {
	cb := grid.CellBoundsOf(b, n.cellSize)
	var out []T
	for _, e := range n.entries {
		if cellsOverlap(cb, e.cells) {
			out = append(out, e.value)
		}
	}
	return out
}

// Len returns the number of live entries.
func (n *Naive[T]) Len() int {
	return len(n.entries)
}

func cellsOverlap(a, b grid.CellBounds) bool {
	return a.XStart <= b.XEnd && b.XStart <= a.XEnd &&
		a.YStart <= b.YEnd && b.YStart <= a.YEnd
}

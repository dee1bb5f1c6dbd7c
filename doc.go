// Package zgrid provides a bucketed spatial index for 2D bounding boxes.
//
// Zgrid maps axis-aligned integer rectangles onto a fixed table of buckets
// addressed by a Z-order (Morton) curve, so "what overlaps this region"
// runs in time proportional to the matches, not the population. It targets
// simulations with many small moving objects — broad-phase collision
// detection, interest management, proximity triggers — that insert, move and
// query thousands of elements per frame with no steady-state allocation.
//
// # Quick Start
//
//	g, _ := zgrid.New[EntityID]()
//
//	h := g.Insert(id, grid.Bounds{X: 10, Y: 10, W: 32, H: 32})
//	g.Update(h, oldBounds, newBounds)           // after the entity moves
//
//	buf = g.Query(viewport, buf[:0])            // candidates, reused buffer
//	g.Visit(viewport, func(id EntityID) bool {  // or stream without collecting
//	    return true
//	})
//	g.Remove(h, newBounds)
//
// The caller keeps each element's handle and latest bounds; the grid stores
// only the payload. Query results are candidates: the bounded bucket table
// aliases distant world regions together, so exact callers re-check each
// result with Bounds.Intersects.
//
// # Store Variants
//
// Two stores implement the same contract (grid.Index):
//
//	zgrid.New[T]()                        // linked: shared node pool, unbounded density
//	zgrid.New[T](zgrid.WithStore(zgrid.StoreDense))  // dense: inline rows + overflow list
//
// The linked store threads bucket membership through one free-list pool and
// degrades gracefully under local density spikes. The dense store keeps a
// fixed number of entries inline per bucket for cache locality and spills
// the rest to a shared overflow list; tune InlineCapacity to the expected
// local density.
//
// # Tuning
//
//	Option           Effect
//	CellSize         World units per bucket edge. Smaller = finer buckets,
//	                 more buckets touched per query, lower per-bucket density.
//	TableBits        log2 of the bucket count. Too small = aliasing pressure,
//	                 too large = wasted memory.
//	InlineCapacity   Dense store only: memberships held without overflow.
//
// # Concurrency
//
// A single grid instance is single-threaded: queries share per-instance
// scratch buffers, so even read-only calls must not overlap. Confine an
// instance to one goroutine, or use Sharded, which partitions elements
// across per-shard instances and fans queries out in parallel.
//
// # Snapshots
//
// Both stores serialize their flat state. Save and Load wrap it in a
// checksummed container with a pluggable compression codec:
//
//	err := zgrid.Save(w, g, zgrid.WithCodec(codec.LZ4{}))
//	err = zgrid.Load(r, g)
package zgrid

// Package slot provides a flat slice of payload slots with free-list reuse,
// so a slot index stays a stable handle for the lifetime of its element and
// steady-state churn allocates nothing.
package slot

// Nil is the free-list tail and invalid-slot sentinel.
const Nil int32 = -1

// Pool stores values of type T at stable int32 indices. Vacated slots form a
// singly linked list threaded through a parallel next array and are reused
// LIFO. Storage grows with the high-water mark of live elements and never
// shrinks except through Clear.
type Pool[T any] struct {
	values []T
	next   []int32 // free-list link per slot; meaningful only while a slot is freed
	free   int32
	live   int
}

// New returns an empty pool.
func New[T any]() Pool[T] {
	return Pool[T]{free: Nil}
}

// Alloc stores v and returns its slot index, reusing the most recently freed
// slot when one exists.
func (p *Pool[T]) Alloc(v T) int32 {
	if p.free != Nil {
		h := p.free
		p.free = p.next[h]
		p.values[h] = v
		p.live++
		return h
	}
	p.values = append(p.values, v)
	p.next = append(p.next, Nil)
	p.live++
	return int32(len(p.values)) - 1
}

// Release pushes the slot onto the free list. The payload is neither zeroed
// nor validated; using a released slot is a caller contract violation.
func (p *Pool[T]) Release(h int32) {
	p.next[h] = p.free
	p.free = h
	p.live--
}

// At returns a pointer to the payload in slot h. The pointer is invalidated
// by the next Alloc.
func (p *Pool[T]) At(h int32) *T {
	return &p.values[h]
}

// Len returns the number of live slots.
func (p *Pool[T]) Len() int {
	return p.live
}

// Cap returns the high-water slot count. Every handle ever returned by Alloc
// is below it.
func (p *Pool[T]) Cap() int {
	return len(p.values)
}

// FreeLen returns the length of the free list.
func (p *Pool[T]) FreeLen() int {
	return len(p.values) - p.live
}

// Reserve pre-grows storage for at least n slots.
func (p *Pool[T]) Reserve(n int) {
	if n <= cap(p.values) {
		return
	}
	values := make([]T, len(p.values), n)
	copy(values, p.values)
	p.values = values
	next := make([]int32, len(p.next), n)
	copy(next, p.next)
	p.next = next
}

// Clear discards all slots and empties the free list. Capacity is retained.
func (p *Pool[T]) Clear() {
	p.values = p.values[:0]
	p.next = p.next[:0]
	p.free = Nil
	p.live = 0
}

// State is the serializable form of a pool.
type State[T any] struct {
	Values []T
	Next   []int32
	Free   int32
	Live   int
}

// Snapshot captures the pool state. The returned slices alias pool storage;
// encode them before the next mutation.
func (p *Pool[T]) Snapshot() State[T] {
	return State[T]{Values: p.values, Next: p.next, Free: p.free, Live: p.live}
}

// Restore replaces the pool state with a previously captured one.
func (p *Pool[T]) Restore(s State[T]) {
	p.values = s.Values
	p.next = s.Next
	p.free = s.Free
	p.live = s.Live
	if p.next == nil {
		p.next = make([]int32, len(p.values))
	}
}

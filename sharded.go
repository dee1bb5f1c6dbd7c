package zgrid

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fynwin/zgrid/grid"
)

// Handle encoding for sharded grids: the shard index rides in the high bits
// so Remove/Update route in O(1) without an external mapping table.
//
// Format: [0:1][Shard:7][Local:24] — the sign bit stays clear so packed
// handles remain valid grid.Handle values.
const (
	shardBits = 7
	localBits = 24

	// MaxShards is the largest shard count NewSharded accepts.
	MaxShards = 1 << shardBits
	// MaxShardElements is the per-shard live element capacity.
	MaxShardElements = 1 << localBits

	localMask = MaxShardElements - 1
)

func packHandle(shard int, local grid.Handle) grid.Handle {
	return grid.Handle(int32(shard)<<localBits | int32(local))
}

func unpackHandle(h grid.Handle) (shard int, local grid.Handle) {
	return int(h >> localBits), h & localMask
}

type shardState[T any] struct {
	mu  sync.Mutex
	idx grid.Index[T]
}

// Sharded partitions elements across independent single-threaded grid
// instances, each with its own query scratch, and serializes access per
// shard. It is safe for concurrent use and fans region queries out across
// shards in parallel.
//
// An element lives in the shard it was inserted into for its whole
// lifetime, so cross-shard queries never see duplicates.
type Sharded[T any] struct {
	shards []*shardState[T]
	next   atomic.Uint32
	logger *slog.Logger
}

// NewSharded creates a sharded grid with the given shard count. Each shard
// is an independent store built from the same options.
func NewSharded[T any](shards int, optFns ...func(*Options)) (*Sharded[T], error) {
	if shards <= 0 || shards > MaxShards {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyShards, shards, MaxShards)
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Sharded[T]{
		shards: make([]*shardState[T], shards),
		logger: opts.Logger,
	}
	for i := range s.shards {
		idx, err := newStore[T](opts)
		if err != nil {
			return nil, err
		}
		s.shards[i] = &shardState[T]{idx: idx}
	}

	if s.logger != nil {
		s.logger.Info("sharded grid created",
			"shards", shards,
			"store", opts.Store.String(),
			"cell_size", opts.Grid.CellSize,
			"table_bits", opts.Grid.TableBits,
		)
	}

	return s, nil
}

// Shards returns the shard count.
func (s *Sharded[T]) Shards() int {
	return len(s.shards)
}

// Insert stores value in the next shard round-robin and returns a handle
// with the shard index packed into its high bits.
func (s *Sharded[T]) Insert(value T, b grid.Bounds) (grid.Handle, error) {
	shard := int(s.next.Add(1)-1) % len(s.shards)
	st := s.shards[shard]

	st.mu.Lock()
	defer st.mu.Unlock()

	local := st.idx.Insert(value, b)
	if local >= MaxShardElements {
		st.idx.Remove(local, b)
		return grid.None, &ErrShardExhausted{Shard: shard}
	}

	return packHandle(shard, local), nil
}

// Remove unlinks the handle from its shard. b must be the bounds most
// recently associated with h.
func (s *Sharded[T]) Remove(h grid.Handle, b grid.Bounds) {
	shard, local := unpackHandle(h)
	st := s.shards[shard]

	st.mu.Lock()
	defer st.mu.Unlock()
	st.idx.Remove(local, b)
}

// Update relocates the handle within its shard.
func (s *Sharded[T]) Update(h grid.Handle, oldBounds, newBounds grid.Bounds) {
	shard, local := unpackHandle(h)
	st := s.shards[shard]

	st.mu.Lock()
	defer st.mu.Unlock()
	st.idx.Update(local, oldBounds, newBounds)
}

// Query collects overlap candidates from every shard in parallel and
// appends them to dst. Order is unspecified, like the single-instance
// stores.
func (s *Sharded[T]) Query(b grid.Bounds, dst []T) []T {
	partial := make([][]T, len(s.shards))

	var eg errgroup.Group
	for i, st := range s.shards {
		i, st := i, st
		eg.Go(func() error {
			st.mu.Lock()
			defer st.mu.Unlock()
			partial[i] = st.idx.Query(b, nil)
			return nil
		})
	}
	_ = eg.Wait()

	for _, p := range partial {
		dst = append(dst, p...)
	}
	return dst
}

// QueryHandles is Query but collects packed handles.
func (s *Sharded[T]) QueryHandles(b grid.Bounds, dst []grid.Handle) []grid.Handle {
	partial := make([][]grid.Handle, len(s.shards))

	var eg errgroup.Group
	for i, st := range s.shards {
		i, st := i, st
		eg.Go(func() error {
			st.mu.Lock()
			defer st.mu.Unlock()
			partial[i] = st.idx.QueryHandles(b, nil)
			return nil
		})
	}
	_ = eg.Wait()

	for i, p := range partial {
		for _, local := range p {
			dst = append(dst, packHandle(i, local))
		}
	}
	return dst
}

// Visit streams each unique matching payload to fn, one shard at a time.
// fn runs on the calling goroutine and must not call back into this grid.
func (s *Sharded[T]) Visit(b grid.Bounds, fn func(T) bool) {
	for _, st := range s.shards {
		stop := false
		st.mu.Lock()
		st.idx.Visit(b, func(v T) bool {
			if !fn(v) {
				stop = true
				return false
			}
			return true
		})
		st.mu.Unlock()
		if stop {
			return
		}
	}
}

// Len returns the number of live elements across all shards.
func (s *Sharded[T]) Len() int {
	total := 0
	for _, st := range s.shards {
		st.mu.Lock()
		total += st.idx.Len()
		st.mu.Unlock()
	}
	return total
}

// Clear discards all elements in every shard.
func (s *Sharded[T]) Clear() {
	for _, st := range s.shards {
		st.mu.Lock()
		st.idx.Clear()
		st.mu.Unlock()
	}
}

// Reserve pre-grows every shard for its portion of n elements.
func (s *Sharded[T]) Reserve(n int) {
	per := (n + len(s.shards) - 1) / len(s.shards)
	for _, st := range s.shards {
		st.mu.Lock()
		st.idx.Reserve(per)
		st.mu.Unlock()
	}
}

// Stats aggregates storage counters across shards.
func (s *Sharded[T]) Stats() grid.Stats {
	var total grid.Stats
	for _, st := range s.shards {
		st.mu.Lock()
		stats := st.idx.Stats()
		st.mu.Unlock()

		total.Elements += stats.Elements
		total.HighWater += stats.HighWater
		total.FreeSlots += stats.FreeSlots
		total.BucketEntries += stats.BucketEntries
		total.FreeBucketEntries += stats.FreeBucketEntries
		total.Overflow += stats.Overflow
	}
	return total
}

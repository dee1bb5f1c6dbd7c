package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCellSize is returned when the cell size is not positive.
	ErrInvalidCellSize = errors.New("cell size must be positive")
	// ErrInvalidTableBits is returned when the bucket table bit-width is out of range.
	ErrInvalidTableBits = errors.New("table bits out of range")
	// ErrInvalidInlineCapacity is returned when the per-bucket inline capacity is not positive.
	ErrInvalidInlineCapacity = errors.New("inline capacity must be positive")
)

const (
	// MinTableBits is the smallest supported bucket table bit-width.
	MinTableBits = 4
	// MaxTableBits is the largest supported bucket table bit-width. The
	// ceiling keeps bucket indices and entry links within int32 range.
	MaxTableBits = 26
)

// Options configures a bucket store. Fields are fixed at construction.
type Options struct {
	// CellSize is the number of world units mapped to one bucket edge.
	// Smaller cells mean more buckets touched per query but lower per-bucket
	// density.
	CellSize int32

	// TableBits is log2 of the number of buckets. Too small increases
	// aliasing between distant world regions; too large wastes memory.
	TableBits uint32

	// InlineCapacity is the number of memberships a bucket stores before
	// spilling to the shared overflow list. Only the dense store uses it;
	// tune it to the expected local density.
	InlineCapacity int
}

// DefaultOptions are the construction defaults shared by both stores.
var DefaultOptions = Options{
	CellSize:       64,
	TableBits:      16,
	InlineCapacity: 6,
}

// Validate checks the options for internal consistency.
func (o Options) Validate() error {
	if o.CellSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCellSize, o.CellSize)
	}
	if o.TableBits < MinTableBits || o.TableBits > MaxTableBits {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidTableBits, o.TableBits, MinTableBits, MaxTableBits)
	}
	if o.InlineCapacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInlineCapacity, o.InlineCapacity)
	}
	return nil
}

// TableSize returns the number of buckets implied by TableBits.
func (o Options) TableSize() int {
	return 1 << o.TableBits
}

// TableMask returns the wraparound mask applied to interleaved indices.
func (o Options) TableMask() uint64 {
	return uint64(1)<<o.TableBits - 1
}

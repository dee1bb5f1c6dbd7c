package dense

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/fynwin/zgrid/grid"
	"github.com/fynwin/zgrid/internal/slot"
	"github.com/fynwin/zgrid/internal/visited"
)

// SnapshotState encodes the complete store state.
func (g *Grid[T]) SnapshotState() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(g.opts); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.elements.Snapshot()); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.counts); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.inline); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.overflow); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// RestoreState replaces the store state with a previously captured one,
// including the options it was captured under.
func (g *Grid[T]) RestoreState(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))

	var opts grid.Options
	if err := dec.Decode(&opts); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	var elements slot.State[T]
	if err := dec.Decode(&elements); err != nil {
		return err
	}

	var counts []int32
	if err := dec.Decode(&counts); err != nil {
		return err
	}
	var inline []int32
	if err := dec.Decode(&inline); err != nil {
		return err
	}
	var overflow []spill
	if err := dec.Decode(&overflow); err != nil {
		return err
	}

	if len(counts) != opts.TableSize() || len(inline) != opts.TableSize()*opts.InlineCapacity {
		return fmt.Errorf("dense: snapshot table shape mismatch: %d buckets, %d inline entries", len(counts), len(inline))
	}

	g.opts = opts
	g.mask = opts.TableMask()
	g.inlineCap = int32(opts.InlineCapacity)
	g.elements.Restore(elements)
	g.counts = counts
	g.inline = inline
	g.overflow = overflow
	g.seen = visited.New(g.elements.Cap())
	g.scratch = g.scratch[:0]

	return nil
}

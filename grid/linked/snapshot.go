package linked

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/fynwin/zgrid/grid"
	"github.com/fynwin/zgrid/internal/slot"
	"github.com/fynwin/zgrid/internal/visited"
)

// SnapshotState encodes the complete store state: the flat node and slot
// slices serialize directly, which is the point of keeping the structure
// index-linked instead of pointer-linked.
func (g *Grid[T]) SnapshotState() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(g.opts); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.elements.Snapshot()); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.nodes); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.freeNode); err != nil {
		return nil, err
	}
	if err := enc.Encode(g.numFree); err != nil {
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

	var nodes []node
	if err := dec.Decode(&nodes); err != nil {
		return err
	}

	var freeNode int32
	if err := dec.Decode(&freeNode); err != nil {
		return err
	}
	var numFree int
	if err := dec.Decode(&numFree); err != nil {
		return err
	}

	if len(nodes) < opts.TableSize() {
		return fmt.Errorf("linked: snapshot node table too small: %d < %d", len(nodes), opts.TableSize())
	}

	g.opts = opts
	g.mask = opts.TableMask()
	g.elements.Restore(elements)
	g.nodes = nodes
	g.freeNode = freeNode
	g.numFree = numFree
	g.seen = visited.New(g.elements.Cap())
	g.scratch = g.scratch[:0]

	return nil
}

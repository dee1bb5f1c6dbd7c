package zgrid

import (
	"fmt"

	"github.com/fynwin/zgrid/grid"
	"github.com/fynwin/zgrid/grid/dense"
	"github.com/fynwin/zgrid/grid/linked"
)

// New creates a grid with the configured bucket store.
//
// The returned index is single-threaded; see the package documentation and
// NewSharded for concurrent deployments.
func New[T any](optFns ...func(*Options)) (grid.Index[T], error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	g, err := newStore[T](opts)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Info("grid created",
			"store", opts.Store.String(),
			"cell_size", opts.Grid.CellSize,
			"table_bits", opts.Grid.TableBits,
		)
	}

	return g, nil
}

func newStore[T any](opts Options) (grid.Index[T], error) {
	gridOpts := func(o *grid.Options) { *o = opts.Grid }

	switch opts.Store {
	case StoreLinked:
		return linked.New[T](gridOpts)
	case StoreDense:
		return dense.New[T](gridOpts)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStore, opts.Store)
	}
}

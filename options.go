package zgrid

import (
	"log/slog"

	"github.com/fynwin/zgrid/codec"
	"github.com/fynwin/zgrid/grid"
)

// StoreType selects the bucket store implementation.
type StoreType int

const (
	// StoreLinked is the shared-pool linked-list store (default).
	StoreLinked StoreType = iota
	// StoreDense is the inline-array store with an overflow list.
	StoreDense
)

// String returns a string representation of the StoreType.
func (s StoreType) String() string {
	switch s {
	case StoreLinked:
		return "linked"
	case StoreDense:
		return "dense"
	default:
		return "unknown"
	}
}

// Options configures grids built through this package.
type Options struct {
	// Store selects the bucket store implementation.
	Store StoreType

	// Grid holds the store configuration; see grid.Options for tuning.
	Grid grid.Options

	// Logger receives structured construction and snapshot events. Core
	// per-operation paths never log. Nil discards everything.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration.
var DefaultOptions = Options{
	Store: StoreLinked,
	Grid:  grid.DefaultOptions,
}

// WithStore selects the bucket store implementation.
func WithStore(s StoreType) func(*Options) {
	return func(o *Options) { o.Store = s }
}

// WithCellSize sets the number of world units mapped to one bucket edge.
func WithCellSize(size int32) func(*Options) {
	return func(o *Options) { o.Grid.CellSize = size }
}

// WithTableBits sets log2 of the bucket count.
func WithTableBits(bits uint32) func(*Options) {
	return func(o *Options) { o.Grid.TableBits = bits }
}

// WithInlineCapacity sets the per-bucket inline capacity of the dense store.
func WithInlineCapacity(n int) func(*Options) {
	return func(o *Options) { o.Grid.InlineCapacity = n }
}

// WithLogger sets the logger for construction and snapshot events.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

// SaveOptions configures Save and Load.
type SaveOptions struct {
	// Codec compresses the snapshot payload. Defaults to codec.Default.
	Codec codec.Codec

	// Logger receives structured snapshot events. Nil discards everything.
	Logger *slog.Logger
}

// WithCodec sets the snapshot compression codec.
func WithCodec(c codec.Codec) func(*SaveOptions) {
	return func(o *SaveOptions) { o.Codec = c }
}

// WithSnapshotLogger sets the logger for snapshot events.
func WithSnapshotLogger(l *slog.Logger) func(*SaveOptions) {
	return func(o *SaveOptions) { o.Logger = l }
}

package zgrid

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStore is returned when Options name a store type this
	// package does not provide.
	ErrUnknownStore = errors.New("unknown store type")

	// ErrTooManyShards is returned when the requested shard count exceeds
	// what the handle encoding can route.
	ErrTooManyShards = errors.New("too many shards")

	// ErrInvalidMagic is returned when snapshot data does not start with the
	// zgrid container magic.
	ErrInvalidMagic = errors.New("invalid snapshot magic")

	// ErrUnsupportedVersion is returned for snapshot container versions this
	// build cannot read.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")

	// ErrUnknownCodec is returned when a snapshot names a compression codec
	// this build does not provide.
	ErrUnknownCodec = errors.New("unknown snapshot codec")

	// ErrChecksumMismatch is returned when the snapshot payload fails
	// checksum verification.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

// ErrShardExhausted indicates a shard reached its per-shard handle capacity.
//
// The sharded wrapper packs the shard index into the public handle, which
// caps each shard at MaxShardElements live elements.
type ErrShardExhausted struct {
	Shard int
}

func (e *ErrShardExhausted) Error() string {
	return fmt.Sprintf("shard %d exhausted: %d elements", e.Shard, MaxShardElements)
}

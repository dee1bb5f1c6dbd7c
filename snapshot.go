package zgrid

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/fynwin/zgrid/codec"
	"github.com/fynwin/zgrid/grid"
)

const (
	// snapshotMagic identifies zgrid snapshot containers (ASCII "ZGR1").
	snapshotMagic = 0x5A475231
	// snapshotVersion is the current container format version.
	snapshotVersion = 1
)

// Container layout, little endian:
//
//	[Magic:4][Version:4][CodecNameLen:2][CodecName:N]
//	[PayloadLen:8][Payload:N][CRC32:4]
//
// Payload is the store's SnapshotState output after compression; the CRC
// covers the compressed payload bytes.

// Save writes the store state to w as a self-describing snapshot container.
func Save(w io.Writer, g grid.Snapshotter, optFns ...func(*SaveOptions)) error {
	opts := SaveOptions{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()

	state, err := g.SnapshotState()
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}

	payload, err := opts.Codec.Compress(state)
	if err != nil {
		return fmt.Errorf("compress (%s): %w", opts.Codec.Name(), err)
	}

	name := opts.Codec.Name()
	header := make([]byte, 0, 10+len(name)+8)
	header = binary.LittleEndian.AppendUint32(header, snapshotMagic)
	header = binary.LittleEndian.AppendUint32(header, snapshotVersion)
	header = binary.LittleEndian.AppendUint16(header, uint16(len(name)))
	header = append(header, name...)
	header = binary.LittleEndian.AppendUint64(header, uint64(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}

	var crc [4]byte
	binary.LittleEndian.PutUint32(crc[:], crc32.ChecksumIEEE(payload))
	if _, err := w.Write(crc[:]); err != nil {
		return err
	}

	if opts.Logger != nil {
		opts.Logger.Info("snapshot saved",
			"codec", name,
			"raw_bytes", len(state),
			"compressed_bytes", len(payload),
			"duration", time.Since(start),
		)
	}

	return nil
}

// Load reads a snapshot container from r and restores it into g. The store
// must be the same variant the snapshot was taken from.
func Load(r io.Reader, g grid.Snapshotter, optFns ...func(*SaveOptions)) error {
	var opts SaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()

	var fixed [10]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return err
	}
	if magic := binary.LittleEndian.Uint32(fixed[0:4]); magic != snapshotMagic {
		return fmt.Errorf("%w: %#x", ErrInvalidMagic, magic)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	name := make([]byte, binary.LittleEndian.Uint16(fixed[8:10]))
	if _, err := io.ReadFull(r, name); err != nil {
		return err
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}

	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}
	payload := make([]byte, binary.LittleEndian.Uint64(lenBuf[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}

	var crc [4]byte
	if _, err := io.ReadFull(r, crc[:]); err != nil {
		return err
	}
	if sum := crc32.ChecksumIEEE(payload); sum != binary.LittleEndian.Uint32(crc[:]) {
		return fmt.Errorf("%w: computed %#x", ErrChecksumMismatch, sum)
	}

	state, err := c.Decompress(payload)
	if err != nil {
		return fmt.Errorf("decompress (%s): %w", c.Name(), err)
	}

	if err := g.RestoreState(state); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	if opts.Logger != nil {
		opts.Logger.Info("snapshot loaded",
			"codec", c.Name(),
			"compressed_bytes", len(payload),
			"duration", time.Since(start),
		)
	}

	return nil
}

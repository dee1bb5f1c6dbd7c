package codec

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses with the LZ4 frame format. Slightly faster decompression
// than S2 at a slightly worse ratio; useful when snapshots are loaded far
// more often than they are saved.
type LZ4 struct{}

// Name returns the stable codec name.
func (LZ4) Name() string { return "lz4" }

// Compress encodes data as an LZ4 frame.
func (LZ4) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decodes an LZ4 frame.
func (LZ4) Decompress(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}

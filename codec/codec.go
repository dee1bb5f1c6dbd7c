// Package codec centralizes the compression codecs used by zgrid snapshots.
//
// Snapshot containers are self-describing: the codec name is stored in the
// container header and resolved through ByName on load, so changing the
// default codec never breaks previously written snapshots.
package codec

// Codec compresses and decompresses snapshot payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = S2{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "none":
		return None{}, true
	case "s2":
		return S2{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// None is the identity codec.
type None struct{}

// Name returns the stable codec name.
func (None) Name() string { return "none" }

// Compress returns data unchanged.
func (None) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }

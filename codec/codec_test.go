package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("bucket membership entries compress well "), 200)

	for _, c := range []Codec{None{}, S2{}, LZ4{}} {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress(payload)
			require.NoError(t, err)

			restored, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, restored)
		})
	}
}

func TestRoundTripEmpty(t *testing.T) {
	for _, c := range []Codec{None{}, S2{}, LZ4{}} {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress(nil)
			require.NoError(t, err)

			restored, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Empty(t, restored)
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"none", "s2", "lz4"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("zstd")
	assert.False(t, ok)
}

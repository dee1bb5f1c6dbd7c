package visited

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New(10)

	assert.False(t, s.TestAndSet(1))
	assert.True(t, s.TestAndSet(1))
	assert.False(t, s.TestAndSet(5))
	assert.True(t, s.TestAndSet(5))

	s.Reset()
	assert.False(t, s.TestAndSet(1))
	assert.False(t, s.TestAndSet(5))
}

func TestSetResetOnlyTouched(t *testing.T) {
	s := New(256)
	s.TestAndSet(7)
	s.TestAndSet(200)
	s.Reset()

	// A second pass over different handles starts clean.
	assert.False(t, s.TestAndSet(8))
	assert.False(t, s.TestAndSet(7))
}

func TestSetGrow(t *testing.T) {
	s := New(2)
	assert.False(t, s.TestAndSet(1))

	s.Grow(1000)
	assert.True(t, s.TestAndSet(1))
	assert.False(t, s.TestAndSet(999))

	s.Reset()
	assert.False(t, s.TestAndSet(999))
}

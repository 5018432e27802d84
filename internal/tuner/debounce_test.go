package tuner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(1)
	assert.Equal(t, 1, d.Last())

	rounded, ok := d.Accept(440.4)
	assert.True(t, ok)
	assert.Equal(t, 440, rounded)

	rounded, ok = d.Accept(440.9)
	assert.False(t, ok)
	assert.Equal(t, 440, rounded)

	rounded, ok = d.Accept(441.2)
	assert.True(t, ok)
	assert.Equal(t, 441, rounded)

	rounded, ok = d.Accept(440.0)
	assert.True(t, ok, "a full 1 Hz step is shown")
	assert.Equal(t, 440, rounded)

	for _, bad := range []float64{0, -3, math.NaN()} {
		_, ok = d.Accept(bad)
		assert.False(t, ok)
	}
	assert.Equal(t, 440, d.Last())

	d.Reset()
	assert.Equal(t, 1, d.Last())
}

func TestDebouncerZeroDelta(t *testing.T) {
	d := NewDebouncer(0)
	for _, f := range []float64{220, 220, 220.2} {
		_, ok := d.Accept(f)
		assert.True(t, ok)
	}
}

package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFocusRoundTripExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ix := rapid.Int32Range(-(1<<17), 1<<17-1).Draw(t, "ix")
		iy := rapid.Int32Range(-(1<<17), 1<<17-1).Draw(t, "iy")
		iz := rapid.Int32Range(-(1<<17), 1<<17-1).Draw(t, "iz")
		shift := uint8(rapid.IntRange(0, 255).Draw(t, "shift"))

		x := float64(ix) * FocusSTMFixedNumUnit
		y := float64(iy) * FocusSTMFixedNumUnit
		z := float64(iz) * FocusSTMFixedNumUnit

		packed := EncodeFocus(x, y, z, shift)
		gx, gy, gz, gshift := DecodeFocus(packed)

		assert.Equal(t, x, gx)
		assert.Equal(t, y, gy)
		assert.Equal(t, z, gz)
		assert.Equal(t, shift, gshift)
	})
}

func TestFocusUnusedBitsIgnored(t *testing.T) {
	packed := EncodeFocus(0, 0, 0, 0) | (0b11 << 62)
	x, y, z, shift := DecodeFocus(packed)
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Zero(t, z)
	assert.Zero(t, shift)
}

func TestDutyRatio(t *testing.T) {
	assert.Equal(t, uint16(2048), DutyRatio(4096, 0))
	assert.Equal(t, uint16(1024), DutyRatio(4096, 1))
}

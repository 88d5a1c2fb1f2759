package drive

import "math"

// FocusSTMFixedNumUnit is the fixed-point unit (in millimeters) of each
// 18-bit signed axis value in an STMFocus point.
const FocusSTMFixedNumUnit = 0.025

// stmFixedBits is the width in bits of each signed axis field.
const stmFixedBits = 18

// EncodeFocus packs a focus point (in millimeters, device-local
// coordinates) and a duty shift into the 64-bit STMFocus wire value.
//
//	bits  0..17 -> x (signed fixed point, unit FocusSTMFixedNumUnit)
//	bits 18..35 -> y
//	bits 36..53 -> z
//	bits 54..61 -> duty_shift (duty ratio = cycle >> (duty_shift+1))
//	bits 62..63 -> unused
func EncodeFocus(x, y, z float64, dutyShift uint8) uint64 {
	ix := toFixed(x)
	iy := toFixed(y)
	iz := toFixed(z)
	const mask18 = uint64(1)<<stmFixedBits - 1
	return (uint64(ix) & mask18) |
		(uint64(iy)&mask18)<<18 |
		(uint64(iz)&mask18)<<36 |
		uint64(dutyShift)<<54
}

// DecodeFocus is the inverse of EncodeFocus; it is bit-exact for any
// ix, iy, iz in [-2^17, 2^17-1] and dutyShift in [0,255].
func DecodeFocus(packed uint64) (x, y, z float64, dutyShift uint8) {
	x = fromFixed(signExtend18(uint32(packed & 0x3FFFF)))
	y = fromFixed(signExtend18(uint32((packed >> 18) & 0x3FFFF)))
	z = fromFixed(signExtend18(uint32((packed >> 36) & 0x3FFFF)))
	dutyShift = uint8((packed >> 54) & 0xFF)
	return
}

func toFixed(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	return int32(math.Round(v / FocusSTMFixedNumUnit))
}

func fromFixed(v int32) float64 {
	return float64(v) * FocusSTMFixedNumUnit
}

// signExtend18 interprets the low 18 bits of v as a two's-complement
// signed integer.
func signExtend18(v uint32) int32 {
	v &= 0x3FFFF
	if v&(1<<17) != 0 {
		v |= 0xFFFC0000
	}
	return int32(v)
}

// DutyRatio returns the duty ratio implied by a duty shift for a given
// per-transducer cycle: cycle >> (dutyShift+1).
func DutyRatio(cycle uint16, dutyShift uint8) uint16 {
	return cycle >> (dutyShift + 1)
}

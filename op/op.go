// Package op implements the per-opcode datagram encoders: each type
// fragments a host-level command (a gain, a modulation envelope, a
// focus/gain stream, a silencer config, ...) across one or more
// TxDatagram frames under the init/pack/is_finished contract that the
// controller scheduler drives.
package op

import (
	"fmt"

	"github.com/autd3/autd3/tx"
)

// Operation is the contract every opcode encoder implements. Init is
// called once before the first Pack; Pack is called once per frame and
// MUST set every header flag and num_bodies field it owns on every
// call, since a previous operation may have left stale bits. IsFinished
// reports whether the operation has nothing left to send; pack may
// still be called once more after it starts returning true; Pack is
// then in charge of setting flags without advancing any cursor.
type Operation interface {
	Init()
	Pack(d *tx.TxDatagram) error
	IsFinished() bool
}

// WireError is a synchronous, pre-send contract violation: it is
// returned from Pack before any byte is written to the wire.
type WireError struct {
	Op  string
	Msg string
}

func (e *WireError) Error() string { return fmt.Sprintf("op: %s: %s", e.Op, e.Msg) }

func wireErrorf(op, format string, args ...any) error {
	return &WireError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// FreqDivMinPolicy names the device generation a Modulation/FocusSTM
// encoder targets, since the minimum accepted sampling frequency
// divisor is a firmware-generation property the device itself does not
// cross-check; the host must pick the right one or drives will
// silently under-sample. There is no single correct default: callers
// MUST choose explicitly.
type FreqDivMinPolicy uint32

const (
	// FreqDivMinLegacy is the minimum freq_div accepted by Legacy-mode
	// (older) firmware.
	FreqDivMinLegacy FreqDivMinPolicy = 1160
	// FreqDivMinAdvanced is the minimum freq_div accepted by
	// Advanced/AdvancedPhase-mode (newer) firmware.
	FreqDivMinAdvanced FreqDivMinPolicy = 580
)

// Buffer capacity constants. The original firmware sources available
// for this port do not list these caps explicitly; they are chosen to
// be consistent with the BRAM segment sizes the firmware exposes
// (MOD_BUF_SEGMENT_SIZE etc.) and are enforced by the host encoders;
// the device emulation in package firmware does not check them.
const (
	FocusSTMBufSizeMax      = 65536
	GainSTMBufSizeMax       = 1024
	GainSTMLegacyBufSizeMax = 2048
	SilencerCycleMin        = 1
)

// Default sampling parameters (§6, "must be exact").
const (
	DefaultModFreqDiv  uint32 = 40960
	DefaultSTMFreqDiv  uint32 = 4096
)

// GainMode discriminates the three GainSTM/Gain wire-encoding variants.
// Its values are the data-mode discriminators the device firmware reads
// from a GainSTM first frame (1, 2 and 4).
type GainMode int

const (
	PhaseDutyFull GainMode = 1 << iota
	PhaseFull
	PhaseHalf
)

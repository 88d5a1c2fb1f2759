// Package firmware emulates the on-device CPU firmware's state
// machine: BRAM segmentation bookkeeping, FPGA control register
// writes, and ack multiplexing, ported from the device's recv_ethercat
// / update tick loop.
package firmware

import (
	"encoding/binary"

	"github.com/autd3/autd3/tx"
)

const cpuVersion = 0x87

// Segment sizes (§6, "must be exact"). Modulation is segmented in
// bytes; Focus/Gain-STM are segmented in entry count.
const (
	modSegWidth   = 15
	modSegSize    = 1 << modSegWidth
	modSegMask    = modSegSize - 1
	focusSegWidth = 11
	focusSegSize  = 1 << focusSegWidth
	focusSegMask  = focusSegSize - 1
	gainSegWidth  = 5
	gainSegSize   = 1 << gainSegWidth
	gainSegMask   = gainSegSize - 1
	gainLegacySegWidth = 6
	gainLegacySegSize  = 1 << gainLegacySegWidth
	gainLegacySegMask  = gainLegacySegSize - 1
)

// WDTCntMax is the watchdog reload value (§6, "must be exact").
const WDTCntMax = 1000

// Gain-STM data mode discriminator stored on the wire, mirroring the
// firmware's own GAIN_DATA_MODE_* constants.
const (
	gainDataModePhaseDutyFull = 0x0001
	gainDataModePhaseFull     = 0x0002
	gainDataModePhaseHalf     = 0x0004
)

// gainStmAdvancedEntry is one advanced gain-STM buffer slot: a
// phase/duty word pair per transducer.
type gainStmAdvancedEntry struct {
	Phase, Duty [TransNum]uint16
}

// Device emulates one chained unit's CPU firmware.
type Device struct {
	ring rxRing

	msgID        uint8
	ack          uint16
	readFPGAInfo bool
	wdtCnt       int

	regs   ControllerRegs
	normal NormalDrives

	cycle [TransNum]uint16 // last cycle table latched by Synchronize

	modCycle  uint32
	modBuffer []byte

	stmWrite        uint32
	stmCycle        uint32
	stmGainDataMode uint16

	focusBuffer       []uint64 // packed STMFocus values, append-only per BEGIN/END bracket
	gainLegacyBuffer  []uint16 // one legacy drive word per transducer per entry, flattened
	gainAdvBuffer     []gainStmAdvancedEntry
}

// NewDevice returns a Device in its post-CLEAR state.
func NewDevice() *Device {
	d := &Device{}
	d.clear()
	return d
}

// Deliver pushes an inbound frame onto the RX ring, as the fieldbus
// interrupt would. Returns false if the ring was full (frame dropped).
func (d *Device) Deliver(header, body []byte) bool {
	return d.ring.push(rxFrame{header: header, body: body})
}

// Tick runs one iteration of the 1ms loop: watchdog bookkeeping, then
// at most one frame popped from the RX ring and dispatched.
// alStatusSyncLoss mirrors the fieldbus AL status reporting a
// synchronization error (0x001A); while true the watchdog counts down
// and invokes Clear on reaching zero.
func (d *Device) Tick(alStatusSyncLoss bool) {
	if alStatusSyncLoss {
		if d.wdtCnt < 0 {
			return
		}
		if d.wdtCnt == 0 {
			d.clear()
		}
		d.wdtCnt--
	} else {
		d.wdtCnt = WDTCntMax
	}

	if f, ok := d.ring.pop(); ok {
		d.dispatch(f.header, wordsOf(f.body))
	}
}

// Apply is a test/simulator convenience that dispatches a frame
// immediately, bypassing the ring's producer/consumer split. body is
// the device's own word slice (e.g. TxDatagram.Body(i).Words()).
func (d *Device) Apply(header []byte, body []uint16) {
	d.dispatch(header, body)
}

// Ack returns the current 16-bit ack value: high byte msg_id echo, low
// byte either a version byte or the FPGA info byte.
func (d *Device) Ack() uint16 { return d.ack }

func wordsOf(body []byte) []uint16 {
	words := make([]uint16, len(body)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(body[2*i : 2*i+2])
	}
	return words
}

func (d *Device) dispatch(header []byte, body []uint16) {
	msgID := header[0]
	fpgaCtl := header[1]
	cpuCtl := header[2]
	size := header[3]
	payload := header[4:tx.HeaderSize]

	if msgID == d.msgID {
		return // duplicate frame, already processed
	}
	d.msgID = msgID
	d.ack = uint16(msgID) << 8
	d.readFPGAInfo = fpgaCtl&tx.CtlReadsFPGAInfo != 0
	if d.readFPGAInfo {
		d.ack = (d.ack &^ 0xFF) | uint16(d.regs.FPGAInfo)
	}

	switch msgID {
	case tx.MsgClear:
		d.clear()
	case tx.MsgRdCPUVersion:
		d.ack = (d.ack &^ 0xFF) | uint16(cpuVersion&0xFF)
	case tx.MsgRdFPGAVersion:
		d.ack = (d.ack &^ 0xFF) | uint16(d.regs.VersionNum&0xFF)
	case tx.MsgRdFPGAFunc:
		d.ack = (d.ack &^ 0xFF) | uint16((d.regs.VersionNum>>8)&0xFF)
	default:
		if msgID > tx.MsgEnd {
			break
		}
		d.processFrame(fpgaCtl, cpuCtl, size, payload, body)
	}
}

func (d *Device) processFrame(fpgaCtl, cpuCtl, size uint8, payload []byte, body []uint16) {
	if cpuCtl&tx.CtlMod == 0 && cpuCtl&tx.CtlConfigSync != 0 {
		d.synchronize(fpgaCtl, body)
		return
	}

	d.regs.CtlFlag = uint16(fpgaCtl)

	if cpuCtl&tx.CtlMod != 0 {
		d.writeMod(cpuCtl, size, payload)
	} else if cpuCtl&tx.CtlConfigSilencer != 0 {
		d.configSilencer(payload)
	}

	if cpuCtl&tx.CtlWriteBody == 0 {
		return
	}

	if cpuCtl&tx.CtlModDelay != 0 {
		d.setModDelay(body)
		return
	}

	if fpgaCtl&tx.CtlOpMode == 0 {
		d.writeNormalOp(fpgaCtl, cpuCtl, body)
		return
	}

	if fpgaCtl&tx.CtlSTMGainMode == 0 {
		d.writeFocusSTM(cpuCtl, body)
	} else if fpgaCtl&tx.CtlLegacyMode == 0 {
		d.writeGainSTM(cpuCtl, body)
	} else {
		d.writeGainSTMLegacy(cpuCtl, body)
	}
}

func (d *Device) synchronize(fpgaCtl uint8, body []uint16) {
	copy(d.regs.CycleBase[:], body[:TransNum])
	copy(d.cycle[:], body[:TransNum])
	d.regs.CtlFlag = uint16(fpgaCtl) | CtlRegSync
}

func (d *Device) writeMod(cpuCtl, size uint8, payload []byte) {
	write := int(size)

	var data []byte
	if cpuCtl&tx.CtlModBegin != 0 {
		d.modCycle = 0
		d.regs.ModAddrOffset = 0
		d.regs.ModFreqDiv = binary.LittleEndian.Uint32(payload[0:4])
		data = payload[4 : 4+write]
	} else {
		data = payload[0:write]
	}

	d.ensureModCapacity(d.modCycle + uint32(write))
	copy(d.modBuffer[d.modCycle:], data)

	segCap := (d.modCycle &^ modSegMask) + modSegSize - d.modCycle
	if uint32(write) <= segCap {
		d.modCycle += uint32(write)
	} else {
		d.modCycle += segCap
		d.regs.ModAddrOffset = (d.modCycle &^ modSegMask) >> modSegWidth
		d.modCycle += uint32(write) - segCap
	}

	if cpuCtl&tx.CtlModEnd != 0 {
		d.regs.ModCycle = max32(1, d.modCycle) - 1
	}
}

func (d *Device) ensureModCapacity(n uint32) {
	if uint32(len(d.modBuffer)) < n {
		grown := make([]byte, n)
		copy(grown, d.modBuffer)
		d.modBuffer = grown
	}
}

func (d *Device) configSilencer(payload []byte) {
	d.regs.SilentCycle = binary.LittleEndian.Uint16(payload[0:2])
	d.regs.SilentStep = binary.LittleEndian.Uint16(payload[2:4])
}

func (d *Device) setModDelay(body []uint16) {
	copy(d.regs.ModDelayBase[:], body[:TransNum])
}

func (d *Device) writeNormalOp(fpgaCtl, cpuCtl uint8, body []uint16) {
	if fpgaCtl&tx.CtlLegacyMode != 0 {
		copy(d.normal.Legacy[:], body[:TransNum])
		return
	}
	if cpuCtl&tx.CtlIsDuty != 0 {
		copy(d.normal.Duty[:], body[:TransNum])
	} else {
		copy(d.normal.Phase[:], body[:TransNum])
	}
}

func (d *Device) writeFocusSTM(cpuCtl uint8, body []uint16) {
	var size int
	var src []uint16
	if cpuCtl&tx.CtlSTMBegin != 0 {
		d.stmWrite = 0
		d.regs.STMAddrOffset = 0
		size = int(body[0])
		d.regs.STMFreqDiv = uint32(body[1]) | uint32(body[2])<<16
		d.regs.SoundSpeed = uint32(body[3]) | uint32(body[4])<<16
		d.regs.STMStartIdx = body[5]
		d.regs.STMFinishIdx = body[6]
		src = body[7:]
	} else {
		size = int(body[0])
		src = body[1:]
	}

	d.ensureFocusCapacity(d.stmWrite + uint32(size))
	for i := 0; i < size; i++ {
		w := src[i*4 : i*4+4]
		packed := uint64(w[0]) | uint64(w[1])<<16 | uint64(w[2])<<32 | uint64(w[3])<<48
		d.focusBuffer[int(d.stmWrite)+i] = packed
	}

	segCap := (d.stmWrite &^ focusSegMask) + focusSegSize - d.stmWrite
	if uint32(size) <= segCap {
		d.stmWrite += uint32(size)
	} else {
		d.stmWrite += segCap
		d.regs.STMAddrOffset = (d.stmWrite &^ focusSegMask) >> focusSegWidth
		d.stmWrite += uint32(size) - segCap
	}

	if cpuCtl&tx.CtlSTMEnd != 0 {
		d.regs.STMCycle = max32(1, d.stmWrite) - 1
		d.regs.CtlFlag |= CtlRegOpModeFPGA
		// 0xFFFF marks an unset index: playback is not gated on it.
		if d.regs.STMStartIdx != 0xFFFF {
			d.regs.CtlFlag |= CtlRegUseSTMStartIdx
		}
		if d.regs.STMFinishIdx != 0xFFFF {
			d.regs.CtlFlag |= CtlRegUseSTMFinishIdx
		}
	}
}

func (d *Device) ensureFocusCapacity(n uint32) {
	if uint32(len(d.focusBuffer)) < n {
		grown := make([]uint64, n)
		copy(grown, d.focusBuffer)
		d.focusBuffer = grown
	}
}

func (d *Device) writeGainSTMLegacy(cpuCtl uint8, body []uint16) {
	if cpuCtl&tx.CtlSTMBegin != 0 {
		d.stmWrite = 0
		d.regs.STMAddrOffset = 0
		d.regs.STMFreqDiv = uint32(body[0]) | uint32(body[1])<<16
		d.stmGainDataMode = body[2]
		d.stmCycle = uint32(body[3])
		d.regs.STMStartIdx = body[4]
		return
	}

	src := body[:TransNum]
	appendEntry := func(words [TransNum]uint16) {
		idx := int(d.stmWrite) * TransNum
		d.ensureGainLegacyCapacity(idx + TransNum)
		copy(d.gainLegacyBuffer[idx:idx+TransNum], words[:])
		d.stmWrite++
	}

	switch d.stmGainDataMode {
	case gainDataModePhaseDutyFull:
		var w [TransNum]uint16
		copy(w[:], src)
		appendEntry(w)
	case gainDataModePhaseFull:
		var lo, hi [TransNum]uint16
		for i, v := range src {
			lo[i] = 0xFF00 | (v & 0x00FF)
			hi[i] = 0xFF00 | ((v >> 8) & 0x00FF)
		}
		appendEntry(lo)
		appendEntry(hi)
	case gainDataModePhaseHalf:
		var e0, e1, e2, e3 [TransNum]uint16
		for i, v := range src {
			e0[i] = 0xFF00 | ((v & 0x000F) << 4) | (v & 0x000F)
			e1[i] = 0xFF00 | (((v >> 4) & 0x000F) << 4) | ((v >> 4) & 0x000F)
			e2[i] = 0xFF00 | (((v >> 8) & 0x000F) << 4) | ((v >> 8) & 0x000F)
			e3[i] = 0xFF00 | (((v >> 12) & 0x000F) << 4) | ((v >> 12) & 0x000F)
		}
		appendEntry(e0)
		appendEntry(e1)
		appendEntry(e2)
		appendEntry(e3)
	}

	if d.stmWrite&gainLegacySegMask == 0 {
		d.regs.STMAddrOffset = (d.stmWrite &^ gainLegacySegMask) >> gainLegacySegWidth
	}

	if cpuCtl&tx.CtlSTMEnd != 0 {
		d.regs.STMCycle = max32(1, d.stmCycle) - 1
		d.regs.CtlFlag |= CtlRegOpModeFPGA
	}
}

func (d *Device) ensureGainLegacyCapacity(n int) {
	if len(d.gainLegacyBuffer) < n {
		grown := make([]uint16, n)
		copy(grown, d.gainLegacyBuffer)
		d.gainLegacyBuffer = grown
	}
}

// writeGainSTM implements the advanced gain-STM write path. Its
// PhaseFull branch preserves a quirk of the original firmware: the
// synthesized duty half is read from the per-transducer cycle table
// one index ahead of the transducer being written (the source loop
// counter starts from 1, so transducer i reads cycle[i+1]; the last
// transducer wraps around to cycle[0]). This is intentionally NOT
// corrected; see the behavior's documentation in DESIGN.md.
func (d *Device) writeGainSTM(cpuCtl uint8, body []uint16) {
	if cpuCtl&tx.CtlSTMBegin != 0 {
		d.stmWrite = 0
		d.regs.STMAddrOffset = 0
		d.regs.STMFreqDiv = uint32(body[0]) | uint32(body[1])<<16
		d.stmGainDataMode = body[2]
		d.stmCycle = uint32(body[3])
		d.regs.STMStartIdx = body[4]
		return
	}

	d.ensureGainAdvCapacity(int(d.stmWrite) + 1)
	entry := &d.gainAdvBuffer[d.stmWrite]
	src := body[:TransNum]

	switch d.stmGainDataMode {
	case gainDataModePhaseDutyFull:
		if cpuCtl&tx.CtlIsDuty != 0 {
			copy(entry.Duty[:], src)
			d.stmWrite++
		} else {
			copy(entry.Phase[:], src)
		}
	case gainDataModePhaseFull:
		if cpuCtl&tx.CtlIsDuty != 0 {
			break
		}
		copy(entry.Phase[:], src)
		for cnt := 0; cnt < TransNum; cnt++ {
			entry.Duty[cnt] = d.cycle[(cnt+1)%TransNum] >> 1
		}
		d.stmWrite++
	}

	if d.stmWrite&gainSegMask == 0 {
		d.regs.STMAddrOffset = (d.stmWrite &^ gainSegMask) >> gainSegWidth
	}

	if cpuCtl&tx.CtlSTMEnd != 0 {
		d.regs.STMCycle = max32(1, d.stmCycle) - 1
		d.regs.CtlFlag |= CtlRegOpModeFPGA
	}
}

func (d *Device) ensureGainAdvCapacity(n int) {
	if len(d.gainAdvBuffer) < n {
		grown := make([]gainStmAdvancedEntry, n)
		copy(grown, d.gainAdvBuffer)
		d.gainAdvBuffer = grown
	}
}

func (d *Device) clear() {
	const defaultModFreqDiv = 40960

	d.readFPGAInfo = false
	d.regs.CtlFlag = 0
	d.regs.SilentStep = 10
	d.regs.SilentCycle = 4096

	d.stmWrite = 0
	d.stmCycle = 0

	d.modCycle = 2
	d.regs.ModCycle = max32(1, d.modCycle) - 1
	d.regs.ModFreqDiv = defaultModFreqDiv
	d.modBuffer = make([]byte, 2)

	for i := range d.normal.Legacy {
		d.normal.Legacy[i] = 0
		d.normal.Duty[i] = 0
		d.normal.Phase[i] = 0
	}

	d.focusBuffer = nil
	d.gainLegacyBuffer = nil
	d.gainAdvBuffer = nil

	d.wdtCnt = WDTCntMax
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// Regs exposes the controller registers for tests/inspection.
func (d *Device) Regs() ControllerRegs { return d.regs }

// ModBuffer returns the raw modulation byte buffer written so far.
func (d *Device) ModBuffer() []byte { return d.modBuffer }

// ModCycle returns the raw sample count written to the modulation
// buffer (distinct from Regs().ModCycle, which the firmware stores as
// count-1 for the FPGA's loop-length register).
func (d *Device) ModCycle() uint32 { return d.modCycle }

// STMCycle returns the raw entry count written to the active STM
// buffer. For focus STM, Regs().STMCycle holds this count minus one;
// gain STM sets that register from the total in its first frame.
func (d *Device) STMCycle() uint32 { return d.stmWrite }

// NormalState returns the current normal-mode drive state.
func (d *Device) NormalState() NormalDrives { return d.normal }

// FocusPoints returns the packed STMFocus values written so far.
func (d *Device) FocusPoints() []uint64 { return d.focusBuffer }

// GainLegacyWords returns the flattened legacy gain-STM buffer (one
// TransNum-word entry per streamed phase/duty frame).
func (d *Device) GainLegacyWords() []uint16 { return d.gainLegacyBuffer }

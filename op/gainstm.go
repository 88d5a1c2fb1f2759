package op

import (
	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

// GainSTMLegacy streams a sequence of gains in legacy packing: one
// frame per gain in PhaseDutyFull mode, two gains per frame in
// PhaseFull, four gains per frame in PhaseHalf.
type GainSTMLegacy struct {
	Geo       *geometry.Geometry
	Gains     [][]drive.Drive // per step, flattened per-device in device order
	Mode      GainMode
	FreqDiv   uint32
	StartIdx, FinishIdx *uint16

	headerSent bool
	sent       int // gains already written
}

func (g *GainSTMLegacy) Init() { g.headerSent = false; g.sent = 0 }

func (g *GainSTMLegacy) gainsPerFrame() int {
	switch g.Mode {
	case PhaseFull:
		return 2
	case PhaseHalf:
		return 4
	default:
		return 1
	}
}

func (g *GainSTMLegacy) Pack(d *tx.TxDatagram) error {
	if len(g.Gains) > GainSTMLegacyBufSizeMax {
		return wireErrorf("gain_stm_legacy", "gain count %d exceeds buffer cap %d", len(g.Gains), GainSTMLegacyBufSizeMax)
	}

	h := d.Header()
	h.SetFPGACtlBit(tx.CtlOpMode, true)
	h.SetFPGACtlBit(tx.CtlSTMGainMode, true)
	h.SetFPGACtlBit(tx.CtlLegacyMode, true)
	h.SetCPUCtlBit(tx.CtlWriteBody, true)
	h.SetSize(0)

	if !g.headerSent {
		h.SetCPUCtlBit(tx.CtlSTMBegin, true)
		total := uint16(len(g.Gains))
		for di := 0; di < g.Geo.NumDevices(); di++ {
			words := d.Body(di).Words()
			words[0] = uint16(g.FreqDiv)
			words[1] = uint16(g.FreqDiv >> 16)
			words[2] = uint16(g.Mode)
			words[3] = total
			words[4] = optIndex(g.StartIdx)
		}
		d.NumBodies = g.Geo.NumDevices()
		g.headerSent = true
		return nil
	}

	h.SetCPUCtlBit(tx.CtlSTMBegin, false)

	n := g.gainsPerFrame()
	if g.sent+n > len(g.Gains) {
		n = len(g.Gains) - g.sent
	}

	for di := 0; di < g.Geo.NumDevices(); di++ {
		words := d.Body(di).Words()
		for ti := range words {
			var ds [4]drive.Drive
			for k := 0; k < n; k++ {
				ds[k] = g.Gains[g.sent+k][di*len(words)+ti]
			}
			switch g.Mode {
			case PhaseDutyFull:
				words[ti] = drive.LegacyWord(ds[0])
			case PhaseFull:
				lo, hi := drive.PhaseFullPack(ds[0], ds[1])
				words[ti] = uint16(lo) | uint16(hi)<<8
			case PhaseHalf:
				lo, hi := drive.PhaseHalfPack(ds[0], ds[1], ds[2], ds[3])
				words[ti] = uint16(lo) | uint16(hi)<<8
			}
		}
	}
	d.NumBodies = g.Geo.NumDevices()
	g.sent += n

	finished := g.sent >= len(g.Gains)
	h.SetCPUCtlBit(tx.CtlSTMEnd, finished)
	return nil
}

func (g *GainSTMLegacy) IsFinished() bool { return g.headerSent && g.sent >= len(g.Gains) }

// GainSTMAdvanced streams a sequence of gains in advanced packing.
// PhaseDutyFull alternates duty/phase frames per gain; PhaseFull emits
// one phase frame per gain, reusing each transducer's previously
// synchronized cycle for the implied duty half. PhaseHalf is rejected:
// advanced firmware has no half-phase packing.
type GainSTMAdvanced struct {
	Geo                 *geometry.Geometry
	Gains               [][]drive.Drive
	Mode                GainMode
	FreqDiv             uint32
	StartIdx, FinishIdx *uint16

	headerSent bool
	sent       int
	dutyPending bool
}

func (g *GainSTMAdvanced) Init() { g.headerSent = false; g.sent = 0; g.dutyPending = false }

func (g *GainSTMAdvanced) Pack(d *tx.TxDatagram) error {
	if g.Mode == PhaseHalf {
		return wireErrorf("gain_stm_advanced", "phase_half is not supported in advanced mode")
	}
	if len(g.Gains) > GainSTMBufSizeMax {
		return wireErrorf("gain_stm_advanced", "gain count %d exceeds buffer cap %d", len(g.Gains), GainSTMBufSizeMax)
	}

	h := d.Header()
	h.SetFPGACtlBit(tx.CtlOpMode, true)
	h.SetFPGACtlBit(tx.CtlSTMGainMode, true)
	h.SetFPGACtlBit(tx.CtlLegacyMode, false)
	h.SetCPUCtlBit(tx.CtlWriteBody, true)
	h.SetSize(0)

	if !g.headerSent {
		h.SetCPUCtlBit(tx.CtlSTMBegin, true)
		total := uint16(len(g.Gains))
		for di := 0; di < g.Geo.NumDevices(); di++ {
			words := d.Body(di).Words()
			words[0] = uint16(g.FreqDiv)
			words[1] = uint16(g.FreqDiv >> 16)
			words[2] = uint16(g.Mode)
			words[3] = total
			words[4] = optIndex(g.StartIdx)
		}
		d.NumBodies = g.Geo.NumDevices()
		g.headerSent = true
		g.dutyPending = false // PhaseDutyFull sends phase before duty, per gain
		return nil
	}

	h.SetCPUCtlBit(tx.CtlSTMBegin, false)

	writeDuty := g.Mode == PhaseDutyFull && g.dutyPending
	h.SetCPUCtlBit(tx.CtlIsDuty, writeDuty)

	if g.sent < len(g.Gains) {
		for di := 0; di < g.Geo.NumDevices(); di++ {
			words := d.Body(di).Words()
			dev := g.Geo.Device(di)
			base := di * len(words)
			for ti := range words {
				dr := g.Gains[g.sent][base+ti]
				cycle := dev.Transducer(ti).Cycle
				if writeDuty {
					words[ti] = drive.AdvancedDuty(dr, cycle)
				} else {
					// PhaseFull carries only the phase half on the wire; the
					// device firmware synthesizes the paired duty value itself
					// (see firmware.Device's gain-STM write path, which has its
					// own documented quirk in that synthesis).
					words[ti] = drive.AdvancedPhase(dr, cycle)
				}
			}
		}

		switch {
		case g.Mode == PhaseDutyFull && !writeDuty:
			// phase frame just sent; duty frame for the same gain follows
			g.dutyPending = true
		case g.Mode == PhaseDutyFull && writeDuty:
			// duty frame just sent; this gain is complete
			g.dutyPending = false
			g.sent++
		default: // PhaseFull: every frame is a complete gain
			g.sent++
		}
	}

	d.NumBodies = g.Geo.NumDevices()

	finished := g.sent >= len(g.Gains)
	h.SetCPUCtlBit(tx.CtlSTMEnd, finished)
	return nil
}

func (g *GainSTMAdvanced) IsFinished() bool { return g.headerSent && g.sent >= len(g.Gains) }

// GainSTMAdvancedPhase streams phase-only frames; amplitude is frozen
// to whatever was last sent via Amplitudes.
type GainSTMAdvancedPhase struct {
	Geo                 *geometry.Geometry
	Gains               [][]drive.Drive
	FreqDiv             uint32
	StartIdx, FinishIdx *uint16

	headerSent bool
	sent       int
}

func (g *GainSTMAdvancedPhase) Init() { g.headerSent = false; g.sent = 0 }

func (g *GainSTMAdvancedPhase) Pack(d *tx.TxDatagram) error {
	if len(g.Gains) > GainSTMBufSizeMax {
		return wireErrorf("gain_stm_advanced_phase", "gain count %d exceeds buffer cap %d", len(g.Gains), GainSTMBufSizeMax)
	}

	h := d.Header()
	h.SetFPGACtlBit(tx.CtlOpMode, true)
	h.SetFPGACtlBit(tx.CtlSTMGainMode, true)
	h.SetFPGACtlBit(tx.CtlLegacyMode, false)
	h.SetCPUCtlBit(tx.CtlWriteBody, true)
	h.SetCPUCtlBit(tx.CtlIsDuty, false)
	h.SetSize(0)

	if !g.headerSent {
		h.SetCPUCtlBit(tx.CtlSTMBegin, true)
		total := uint16(len(g.Gains))
		for di := 0; di < g.Geo.NumDevices(); di++ {
			words := d.Body(di).Words()
			words[0] = uint16(g.FreqDiv)
			words[1] = uint16(g.FreqDiv >> 16)
			words[2] = uint16(PhaseFull)
			words[3] = total
			words[4] = optIndex(g.StartIdx)
		}
		d.NumBodies = g.Geo.NumDevices()
		g.headerSent = true
		return nil
	}

	h.SetCPUCtlBit(tx.CtlSTMBegin, false)

	if g.sent < len(g.Gains) {
		for di := 0; di < g.Geo.NumDevices(); di++ {
			words := d.Body(di).Words()
			dev := g.Geo.Device(di)
			base := di * len(words)
			for ti := range words {
				dr := g.Gains[g.sent][base+ti]
				cycle := dev.Transducer(ti).Cycle
				words[ti] = drive.AdvancedPhase(dr, cycle)
			}
		}
		g.sent++
	}

	d.NumBodies = g.Geo.NumDevices()

	finished := g.sent >= len(g.Gains)
	h.SetCPUCtlBit(tx.CtlSTMEnd, finished)
	return nil
}

func (g *GainSTMAdvancedPhase) IsFinished() bool { return g.headerSent && g.sent >= len(g.Gains) }

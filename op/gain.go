package op

import (
	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

// Gain packs a static per-transducer drive set. In Legacy mode the
// header-only frame and the body frame are sent back to back, one word
// per transducer. In Advanced/AdvancedPhase mode the duty and phase
// halves are sent in two consecutive body frames distinguished by
// CPU::IsDuty; the operation reports finished only once both halves
// have gone out.
type Gain struct {
	Geo    *geometry.Geometry
	Drives [][]drive.Drive // per device, one Drive per transducer

	headerSent bool
	dutySent   bool
	phaseSent  bool
}

func (g *Gain) Init() {
	g.headerSent = false
	g.dutySent = false
	g.phaseSent = false
}

func (g *Gain) Pack(d *tx.TxDatagram) error {
	h := d.Header()
	h.SetFPGACtlBit(tx.CtlOpMode, false)
	h.SetFPGACtlBit(tx.CtlLegacyMode, g.Geo.Mode() == geometry.Legacy)
	h.SetSize(0)

	if !g.headerSent {
		d.NumBodies = 0
		g.headerSent = true
		return nil
	}

	switch g.Geo.Mode() {
	case geometry.Legacy:
		h.SetCPUCtlBit(tx.CtlWriteBody, true)
		for di := range g.Drives {
			body := d.Body(di)
			for ti, dr := range g.Drives[di] {
				body.Set(ti, drive.LegacyWord(dr))
			}
		}
		d.NumBodies = g.Geo.NumDevices()
		g.dutySent = true
		g.phaseSent = true

	case geometry.Advanced, geometry.AdvancedPhase:
		h.SetCPUCtlBit(tx.CtlWriteBody, true)
		writeDuty := !g.dutySent
		h.SetCPUCtlBit(tx.CtlIsDuty, writeDuty)
		for di := range g.Drives {
			body := d.Body(di)
			dev := g.Geo.Device(di)
			for ti, dr := range g.Drives[di] {
				cycle := dev.Transducer(ti).Cycle
				if writeDuty {
					body.Set(ti, drive.AdvancedDuty(dr, cycle))
				} else {
					body.Set(ti, drive.AdvancedPhase(dr, cycle))
				}
			}
		}
		d.NumBodies = g.Geo.NumDevices()
		if writeDuty {
			g.dutySent = true
		} else {
			g.phaseSent = true
		}
	}

	return nil
}

func (g *Gain) IsFinished() bool {
	return g.headerSent && g.dutySent && g.phaseSent
}

package op

import (
	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

// Amplitudes writes a single uniform amplitude across every transducer,
// encoded as advanced duty. Only meaningful in AdvancedPhase mode,
// where GainSTM frames never carry a duty half and this is the only
// way to set one.
type Amplitudes struct {
	Geo *geometry.Geometry
	Amp float64

	sent bool
}

func (a *Amplitudes) Init() { a.sent = false }

func (a *Amplitudes) Pack(d *tx.TxDatagram) error {
	h := d.Header()
	h.SetFPGACtlBit(tx.CtlOpMode, false)
	h.SetFPGACtlBit(tx.CtlLegacyMode, false)
	h.SetCPUCtlBit(tx.CtlWriteBody, true)
	h.SetCPUCtlBit(tx.CtlIsDuty, true)
	h.SetSize(0)

	dr := drive.Drive{Amp: a.Amp}
	for di := 0; di < a.Geo.NumDevices(); di++ {
		body := d.Body(di)
		dev := a.Geo.Device(di)
		for ti := 0; ti < dev.NumTransducers(); ti++ {
			body.Set(ti, drive.AdvancedDuty(dr, dev.Transducer(ti).Cycle))
		}
	}
	d.NumBodies = a.Geo.NumDevices()
	a.sent = true
	return nil
}

func (a *Amplitudes) IsFinished() bool { return a.sent }

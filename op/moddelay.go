package op

import (
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

// ModDelayConfig writes each transducer's modulation delay into the
// device's mod-delay BRAM region in a single frame.
type ModDelayConfig struct {
	Geo *geometry.Geometry

	sent bool
}

func (m *ModDelayConfig) Init() { m.sent = false }

func (m *ModDelayConfig) Pack(d *tx.TxDatagram) error {
	h := d.Header()
	h.SetCPUCtlBit(tx.CtlWriteBody, true)
	h.SetCPUCtlBit(tx.CtlModDelay, true)
	h.SetSize(0)

	for di := 0; di < m.Geo.NumDevices(); di++ {
		body := d.Body(di)
		dev := m.Geo.Device(di)
		for ti := 0; ti < dev.NumTransducers(); ti++ {
			body.Set(ti, dev.Transducer(ti).ModDelay)
		}
	}
	d.NumBodies = m.Geo.NumDevices()
	m.sent = true
	return nil
}

func (m *ModDelayConfig) IsFinished() bool { return m.sent }

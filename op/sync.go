package op

import (
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

// Sync writes every transducer's cycle divisor into its device body and
// asserts CPU::ConfigSync. In Legacy mode every cycle must equal
// geometry.DefaultCycle (4096); Advanced/AdvancedPhase accept any
// cycle.
type Sync struct {
	Geo  *geometry.Geometry
	sent bool
}

func (s *Sync) Init() { s.sent = false }

func (s *Sync) Pack(d *tx.TxDatagram) error {
	if s.Geo.Mode() == geometry.Legacy {
		if err := s.Geo.CheckLegacySync(); err != nil {
			return wireErrorf("sync", "%v", err)
		}
	}

	h := d.Header()
	h.SetCPUCtlBit(tx.CtlConfigSync, true)
	h.SetSize(0)

	for di := 0; di < s.Geo.NumDevices(); di++ {
		body := d.Body(di)
		dev := s.Geo.Device(di)
		for ti := 0; ti < dev.NumTransducers(); ti++ {
			body.Set(ti, dev.Transducer(ti).Cycle)
		}
	}
	d.NumBodies = s.Geo.NumDevices()
	s.sent = true
	return nil
}

func (s *Sync) IsFinished() bool { return s.sent }

// SyncMinTimeoutNS is the mandatory minimum timeout for Synchronize.
const SyncMinTimeoutNS = 20_000_000

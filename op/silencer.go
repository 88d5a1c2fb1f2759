package op

import (
	"encoding/binary"

	"github.com/autd3/autd3/tx"
)

// ConfigSilencer writes the post-drive low-pass smoothing parameters
// (step, cycle) to the controller registers in a single frame.
type ConfigSilencer struct {
	Step  uint16
	Cycle uint16

	sent bool
}

func (c *ConfigSilencer) Init() { c.sent = false }

func (c *ConfigSilencer) Pack(d *tx.TxDatagram) error {
	if c.Cycle < SilencerCycleMin {
		return wireErrorf("config_silencer", "cycle %d below minimum %d", c.Cycle, SilencerCycleMin)
	}

	h := d.Header()
	h.SetCPUCtlBit(tx.CtlConfigSilencer, true)
	payload := h.Payload()
	binary.LittleEndian.PutUint16(payload[0:2], c.Cycle)
	binary.LittleEndian.PutUint16(payload[2:4], c.Step)
	h.SetSize(0)

	d.NumBodies = 0
	c.sent = true
	return nil
}

func (c *ConfigSilencer) IsFinished() bool { return c.sent }

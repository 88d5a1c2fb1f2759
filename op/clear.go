package op

import "github.com/autd3/autd3/tx"

// Clear resets every device to its power-on state: all BRAM regions and
// control flags cleared, modulation buffer reset to its 2-sample
// all-zero default.
type Clear struct {
	sent bool
}

func (c *Clear) Init() { c.sent = false }

func (c *Clear) Pack(d *tx.TxDatagram) error {
	h := d.Header()
	h.SetMsgID(tx.MsgClear)
	h.SetFPGACtl(0)
	h.SetCPUCtl(0)
	h.SetSize(0)
	d.NumBodies = 0
	c.sent = true
	return nil
}

func (c *Clear) IsFinished() bool { return c.sent }

// ClearMinTimeoutNS is the mandatory minimum timeout the controller must
// enforce for Clear, regardless of the caller-supplied timeout.
const ClearMinTimeoutNS = 20_000_000 // 20ms

// MinCheckTrials is the mandatory minimum retry count for Clear and
// Synchronize.
const MinCheckTrials = 200

package op

import "github.com/autd3/autd3/tx"

// infoRequest is the shared shape of the three reserved msg_id requests
// that read back a version/capability byte via the ack field rather
// than writing any state.
type infoRequest struct {
	msgID uint8
	sent  bool
}

func (r *infoRequest) Init() { r.sent = false }

func (r *infoRequest) pack(d *tx.TxDatagram) error {
	h := d.Header()
	h.SetMsgID(r.msgID)
	h.SetFPGACtl(0)
	h.SetCPUCtl(0)
	h.SetSize(0)
	d.NumBodies = 0
	r.sent = true
	return nil
}

func (r *infoRequest) IsFinished() bool { return r.sent }

// CPUVersion requests the device CPU firmware version byte.
type CPUVersion struct{ infoRequest }

func NewCPUVersion() *CPUVersion {
	c := &CPUVersion{}
	c.msgID = tx.MsgRdCPUVersion
	return c
}

func (c *CPUVersion) Pack(d *tx.TxDatagram) error { return c.pack(d) }

// FPGAVersion requests the FPGA bitstream version byte.
type FPGAVersion struct{ infoRequest }

func NewFPGAVersion() *FPGAVersion {
	f := &FPGAVersion{}
	f.msgID = tx.MsgRdFPGAVersion
	return f
}

func (f *FPGAVersion) Pack(d *tx.TxDatagram) error { return f.pack(d) }

// FPGAFunctions requests the FPGA capability/function byte.
type FPGAFunctions struct{ infoRequest }

func NewFPGAFunctions() *FPGAFunctions {
	f := &FPGAFunctions{}
	f.msgID = tx.MsgRdFPGAFunc
	return f
}

func (f *FPGAFunctions) Pack(d *tx.TxDatagram) error { return f.pack(d) }

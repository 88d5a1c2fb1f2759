package op

import "github.com/autd3/autd3/tx"

// ForceFan toggles FPGA::ForceFan in a single header-only frame.
type ForceFan struct {
	On   bool
	sent bool
}

func (f *ForceFan) Init() { f.sent = false }

func (f *ForceFan) Pack(d *tx.TxDatagram) error {
	h := d.Header()
	h.SetFPGACtlBit(tx.CtlForceFan, f.On)
	h.SetSize(0)
	d.NumBodies = 0
	f.sent = true
	return nil
}

func (f *ForceFan) IsFinished() bool { return f.sent }

// ReadsFPGAInfo toggles FPGA::ReadsFPGAInfo in a single header-only
// frame; once set, subsequent acks multiplex the FPGA info byte
// instead of echoing a version.
type ReadsFPGAInfo struct {
	On   bool
	sent bool
}

func (r *ReadsFPGAInfo) Init() { r.sent = false }

func (r *ReadsFPGAInfo) Pack(d *tx.TxDatagram) error {
	h := d.Header()
	h.SetFPGACtlBit(tx.CtlReadsFPGAInfo, r.On)
	h.SetSize(0)
	d.NumBodies = 0
	r.sent = true
	return nil
}

func (r *ReadsFPGAInfo) IsFinished() bool { return r.sent }

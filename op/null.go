package op

import "github.com/autd3/autd3/tx"

// NullHeader leaves the header untouched apart from resetting size to
// zero; used to pad a frame whose body carries the real data.
type NullHeader struct{}

func (NullHeader) Init() {}

func (NullHeader) Pack(d *tx.TxDatagram) error {
	d.Header().SetSize(0)
	return nil
}

func (NullHeader) IsFinished() bool { return true }

// NullBody leaves every device body untouched; used to pad a frame
// whose header carries the real data.
type NullBody struct{}

func (NullBody) Init() {}

func (NullBody) Pack(d *tx.TxDatagram) error {
	d.NumBodies = 0
	return nil
}

func (NullBody) IsFinished() bool { return true }

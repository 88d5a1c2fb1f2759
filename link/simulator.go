package link

import (
	"github.com/autd3/autd3/firmware"
	"github.com/autd3/autd3/tx"
)

// Simulator is an in-process Link backed by one firmware.Device per
// chained unit. It never touches a real fieldbus: Send dispatches the
// frame into every device directly, and Receive reads back each
// device's current ack.
type Simulator struct {
	devices []*firmware.Device
}

// NewSimulator returns a Simulator with no devices; Open sizes it.
func NewSimulator() *Simulator { return &Simulator{} }

func (s *Simulator) Open(deviceMap []int) error {
	s.devices = make([]*firmware.Device, len(deviceMap))
	for i := range s.devices {
		s.devices[i] = firmware.NewDevice()
	}
	return nil
}

func (s *Simulator) Close() error {
	s.devices = nil
	return nil
}

// Send dispatches the frame's header and each device's own body word
// slice straight into the matching firmware.Device, bypassing the RX
// ring (there is no interrupt latency to model in-process).
func (s *Simulator) Send(d *tx.TxDatagram) error {
	header := d.HeaderBytes()
	for i, dev := range s.devices {
		dev.Apply(header, d.Body(i).Words())
	}
	return nil
}

// Receive reads back every device's current ack into r.
func (s *Simulator) Receive(r *tx.RxDatagram) error {
	msgs := r.Messages()
	for i, dev := range s.devices {
		ack := dev.Ack()
		msgs[i] = tx.RxMessage{Ack: uint8(ack), MsgID: uint8(ack >> 8)}
	}
	return nil
}

// Device exposes the underlying firmware.Device for device i, for
// tests and inspection tools that need to peek past the wire.
func (s *Simulator) Device(i int) *firmware.Device { return s.devices[i] }

// Package link implements the transport adapters a Controller sends
// datagrams through: an in-process Simulator backed by firmware.Device
// instances, and a Serial adapter grounded on a real engraving-style
// serial protocol driver. Link is a single-mailbox, at-most-one-in-
// flight contract: callers never issue a second Send before a prior
// SendReceive has resolved.
package link

import (
	"time"

	"github.com/autd3/autd3/tx"
)

// Link is the transport contract every adapter implements.
type Link interface {
	Open(deviceMap []int) error
	Close() error
	Send(d *tx.TxDatagram) error
	Receive(r *tx.RxDatagram) error
}

// pollInterval is the default spacing used by SendReceive while
// waiting for an ack.
const pollInterval = time.Millisecond

// SendReceive is the default send/wait-for-ack loop any Link gets for
// free: send once, then poll Receive at pollInterval until every
// device's msg_id echoes tx's, or timeout elapses. A zero timeout
// means "do not wait for ack": Send is attempted and Receive is
// polled exactly once.
func SendReceive(l Link, d *tx.TxDatagram, r *tx.RxDatagram, timeout time.Duration) (bool, error) {
	if err := l.Send(d); err != nil {
		return false, err
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := l.Receive(r); err != nil {
			return false, err
		}
		if r.IsMsgProcessed(d.Header().MsgID()) {
			return true, nil
		}
		if timeout <= 0 || time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

// Bundle fans a Send out to every member link and reads Receive back
// from the first.
type Bundle struct {
	Links []Link
}

func (b *Bundle) Open(deviceMap []int) error {
	for _, l := range b.Links {
		if err := l.Open(deviceMap); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bundle) Close() error {
	var first error
	for _, l := range b.Links {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (b *Bundle) Send(d *tx.TxDatagram) error {
	for _, l := range b.Links {
		if err := l.Send(d); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bundle) Receive(r *tx.RxDatagram) error {
	if len(b.Links) == 0 {
		return nil
	}
	return b.Links[0].Receive(r)
}

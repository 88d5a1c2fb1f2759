// Package controller pumps operation encoders from package op through a
// link.Link transport: one msg_id per frame, force_fan/reads_fpga_info
// flag application, ack polling, and timeout/trial enforcement.
package controller

import (
	"time"

	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/link"
	"github.com/autd3/autd3/op"
	"github.com/autd3/autd3/tx"
)

// EC_SYNC0 cycle spacing the reference hardware runs its distributed
// clock at; SendInterval defaults to one such cycle.
const ecSync0CycleTime = time.Microsecond * 500

// Controller owns the Tx/Rx pair and link for one geometry, and pumps
// operations one at a time. It is not safe for concurrent use: only
// one operation (or one SoftwareSTM) may be in flight per instance.
type Controller struct {
	Geo  *geometry.Geometry
	Link link.Link
	Log  Logger

	// ForceFan and ReadsFPGAInfo are applied to every frame's fpga_ctl
	// flags before Send, independent of whatever operation is pumping.
	ForceFan      bool
	ReadsFPGAInfo bool

	// Timeout is the ack wait for each frame; CheckTrials is the max
	// poll count per frame. Clear/Synchronize silently raise both to their
	// mandatory minimums.
	Timeout      time.Duration
	CheckTrials  int
	SendInterval time.Duration

	tx   *tx.TxDatagram
	rx   *tx.RxDatagram
	msgID uint8
}

// Open allocates the Tx/Rx pair from geo's device map and opens link.
func Open(geo *geometry.Geometry, l link.Link) (*Controller, error) {
	deviceMap := geo.DeviceMap()
	if err := l.Open(deviceMap); err != nil {
		return nil, &LinkError{Op: "open", Err: err}
	}
	c := &Controller{
		Geo:          geo,
		Link:         l,
		Log:          NopLogger{},
		Timeout:      20 * time.Millisecond,
		CheckTrials:  200,
		SendInterval: ecSync0CycleTime,
		tx:           tx.NewTxDatagram(deviceMap),
		rx:           tx.NewRxDatagram(len(deviceMap)),
	}
	return c, nil
}

// Close closes the underlying link.
func (c *Controller) Close() error {
	if err := c.Link.Close(); err != nil {
		return &LinkError{Op: "close", Err: err}
	}
	return nil
}

func (c *Controller) nextMsgID() uint8 {
	c.msgID = tx.NextMsgID(c.msgID)
	return c.msgID
}

// minTimeoutTrials returns the mandatory floor for Clear/Synchronize,
// per spec: both carry a minimum 20ms timeout and 200-trial budget
// regardless of what the caller configured.
func minTimeoutTrials(o op.Operation, timeout time.Duration, trials int) (time.Duration, int) {
	switch o.(type) {
	case *op.Clear:
		if timeout < op.ClearMinTimeoutNS {
			timeout = op.ClearMinTimeoutNS
		}
		if trials < op.MinCheckTrials {
			trials = op.MinCheckTrials
		}
	case *op.Sync:
		if timeout < op.SyncMinTimeoutNS {
			timeout = op.SyncMinTimeoutNS
		}
		if trials < op.MinCheckTrials {
			trials = op.MinCheckTrials
		}
	}
	return timeout, trials
}

// Send pumps o to completion: Init, then repeatedly assign a fresh
// msg_id + Pack + apply ambient flags + send and poll for the ack,
// until IsFinished or the trial/timeout budget is exhausted.
func (c *Controller) Send(o op.Operation) error {
	timeout, trials := minTimeoutTrials(o, c.Timeout, c.CheckTrials)

	o.Init()
	for {
		h := c.tx.Header()
		h.SetMsgID(c.nextMsgID())

		// Pack runs after the id is assigned: most operations keep it,
		// but the reserved-id ops (Clear, CPUVersion, FPGAVersion,
		// FPGAFunctions) overwrite it
		// with their fixed msg_id, which the device depends on to
		// recognize them regardless of the sequence counter.
		if err := o.Pack(c.tx); err != nil {
			return err
		}

		h.SetFPGACtlBit(tx.CtlForceFan, c.ForceFan)
		h.SetFPGACtlBit(tx.CtlReadsFPGAInfo, c.ReadsFPGAInfo)

		ok, err := c.sendReceiveWithTrials(timeout, trials)
		if err != nil {
			return &LinkError{Op: "send_receive", Err: err}
		}
		if !ok {
			return &TimeoutError{Op: "send", Trials: trials, Timeout: timeout.String()}
		}

		if o.IsFinished() {
			return nil
		}
	}
}

// sendReceiveWithTrials polls at most trials times, spaced
// c.SendInterval apart, stopping early once every device's msg_id
// echoes or the overall timeout elapses, whichever triggers first.
func (c *Controller) sendReceiveWithTrials(timeout time.Duration, trials int) (bool, error) {
	if err := c.Link.Send(c.tx); err != nil {
		return false, err
	}
	want := c.tx.Header().MsgID()
	deadline := time.Now().Add(timeout)
	for i := 0; ; i++ {
		if err := c.Link.Receive(c.rx); err != nil {
			return false, err
		}
		if c.rx.IsMsgProcessed(want) {
			return true, nil
		}
		if trials > 0 && i+1 >= trials {
			return false, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			return false, nil
		}
		if timeout <= 0 && trials <= 0 {
			return false, nil
		}
		time.Sleep(c.SendInterval)
	}
}

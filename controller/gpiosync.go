//go:build linux

package controller

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
)

// GPIOSyncTimer is an additive tick source for SoftwareSTM: instead of
// a software timer, it watches a GPIO pin wired to a device's DC_SYNC0
// test point and ticks on every rising edge. It does not replace the
// sleep/busy-wait/native-timer trio; it is selected explicitly by
// callers who have that wiring available.
type GPIOSyncTimer struct {
	pin gpio.PinIn
	tick chan struct{}
	stop chan struct{}
}

// OpenGPIOSyncTimer initializes the host GPIO subsystem and arms pin
// for edge detection.
func OpenGPIOSyncTimer(pin gpio.PinIn) (*GPIOSyncTimer, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("controller: gpio sync pin: %w", err)
	}
	t := &GPIOSyncTimer{
		pin:  pin,
		tick: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go t.watch()
	return t, nil
}

func (t *GPIOSyncTimer) watch() {
	for {
		if !t.pin.WaitForEdge(-1) {
			select {
			case <-t.stop:
				return
			default:
				continue
			}
		}
		select {
		case t.tick <- struct{}{}:
		default:
		}
		select {
		case <-t.stop:
			return
		default:
		}
	}
}

// C returns the channel a SoftwareSTM run loop can block on in place
// of a time.Ticker's channel.
func (t *GPIOSyncTimer) C() <-chan struct{} { return t.tick }

// Close stops the watcher goroutine.
func (t *GPIOSyncTimer) Close() error {
	close(t.stop)
	return nil
}

package controller

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/autd3/autd3/op"
)

// TimerStrategy selects how SoftwareSTM waits between ticks.
type TimerStrategy int

const (
	// Sleep parks the goroutine for the remainder of the period.
	Sleep TimerStrategy = iota
	// BusyWait spins until the deadline, trading CPU for lower jitter.
	BusyWait
	// NativeTimer ticks off a time.Ticker.
	NativeTimer
)

// SoftwareSTM sends a sequence of gains at a target period, one
// Controller.Send per tick. It owns the Controller for its lifetime:
// Start consumes it, Finish returns it. No other caller may use the
// Controller in between.
type SoftwareSTM struct {
	Period   time.Duration
	Strategy TimerStrategy
	Gains    []op.Operation

	// Clock, if set, replaces the NativeTimer strategy's time.Ticker
	// with an external pulse source (e.g. controller.GPIOSyncTimer.C()).
	// Ignored unless Strategy is NativeTimer.
	Clock <-chan struct{}

	ctrl *Controller
	stop atomic.Bool
	done chan error
}

// Start moves ctrl into a running SoftwareSTM handle. ctrl must not be
// used again until Finish returns it.
func Start(ctrl *Controller, period time.Duration, strategy TimerStrategy, gains []op.Operation) *SoftwareSTM {
	s := &SoftwareSTM{
		Period:   period,
		Strategy: strategy,
		Gains:    gains,
		ctrl:     ctrl,
		done:     make(chan error, 1),
	}
	go s.run()
	return s
}

func (s *SoftwareSTM) run() {
	var err error
	switch s.Strategy {
	case BusyWait:
		err = s.runBusyWait()
	case NativeTimer:
		err = s.runNativeTimer()
	default:
		err = s.runSleep()
	}
	s.done <- err
}

func (s *SoftwareSTM) runSleep() error {
	next := time.Now()
	for i := 0; !s.stop.Load(); i = (i + 1) % len(s.Gains) {
		if err := s.ctrl.Send(s.Gains[i]); err != nil {
			return err
		}
		next = next.Add(s.Period)
		if d := time.Until(next); d > 0 {
			time.Sleep(d)
		}
	}
	return nil
}

func (s *SoftwareSTM) runBusyWait() error {
	next := time.Now()
	for i := 0; !s.stop.Load(); i = (i + 1) % len(s.Gains) {
		if err := s.ctrl.Send(s.Gains[i]); err != nil {
			return err
		}
		next = next.Add(s.Period)
		for time.Now().Before(next) {
			runtime.Gosched()
		}
	}
	return nil
}

func (s *SoftwareSTM) runNativeTimer() error {
	if s.Clock != nil {
		for i := 0; !s.stop.Load(); i = (i + 1) % len(s.Gains) {
			if err := s.ctrl.Send(s.Gains[i]); err != nil {
				return err
			}
			<-s.Clock
		}
		return nil
	}

	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()
	for i := 0; !s.stop.Load(); i = (i + 1) % len(s.Gains) {
		if err := s.ctrl.Send(s.Gains[i]); err != nil {
			return err
		}
		<-ticker.C
	}
	return nil
}

// Finish signals the worker to stop after its current cycle, joins it,
// and returns the Controller for reuse.
func (s *SoftwareSTM) Finish() (*Controller, error) {
	s.stop.Store(true)
	err := <-s.done
	return s.ctrl, err
}

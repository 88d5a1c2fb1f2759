// command autd3ctl is a thin CLI front-end exercising the controller
// against either a real serial transport or the in-process simulator.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/autd3/autd3/controller"
	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/link"
	"github.com/autd3/autd3/op"
)

var (
	serialDev  = flag.String("device", "", "serial device; empty probes the platform default")
	simulate   = flag.Bool("simulate", false, "use the in-process simulator instead of a real link")
	geoFile    = flag.String("geometry", "", "path to a JSON device-map file ([{x,y,z},...] global positions)")
	freqDiv    = flag.Uint("freq-div", uint(op.DefaultSTMFreqDiv), "STM/modulation sampling divisor")
	focusX     = flag.Float64("focus-x", 0, "focal point x, mm")
	focusY     = flag.Float64("focus-y", 0, "focal point y, mm")
	focusZ     = flag.Float64("focus-z", 150, "focal point z, mm")
)

type devicePosition struct {
	X, Y, Z float64
}

func loadGeometry(path string) (*geometry.Geometry, error) {
	geo := geometry.NewGeometry(geometry.Legacy)
	if path == "" {
		geo.AddDevice(geometry.Vec3{}, geometry.IdentityQuat)
		return geo, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var positions []devicePosition
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, errors.New("autd3ctl: geometry file lists no devices")
	}
	for _, p := range positions {
		geo.AddDevice(geometry.Vec3{X: p.X, Y: p.Y, Z: p.Z}, geometry.IdentityQuat)
	}
	return geo, nil
}

func run() error {
	flag.Parse()

	geo, err := loadGeometry(*geoFile)
	if err != nil {
		return err
	}

	var l link.Link
	if *simulate {
		l = link.NewSimulator()
	} else {
		l = link.NewSerial(*serialDev)
	}

	ctrl, err := controller.Open(geo, l)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	ctrl.Log = controller.DefaultLogger

	if err := ctrl.Send(&op.Clear{}); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := ctrl.Send(&op.Sync{Geo: geo}); err != nil {
		return fmt.Errorf("synchronize: %w", err)
	}

	mod := &op.Modulation{
		Data:    []byte{0xFF, 0xFF},
		FreqDiv: uint32(*freqDiv),
		MinFreq: op.FreqDivMinLegacy,
	}
	if err := ctrl.Send(mod); err != nil {
		return fmt.Errorf("modulation: %w", err)
	}

	gain := &op.Gain{
		Geo:    geo,
		Drives: focusGain(geo, geometry.Vec3{X: *focusX, Y: *focusY, Z: *focusZ}),
	}
	if err := ctrl.Send(gain); err != nil {
		return fmt.Errorf("gain: %w", err)
	}

	fmt.Fprintf(os.Stderr, "autd3ctl: focused at (%.1f, %.1f, %.1f) mm, %d device(s)\n",
		*focusX, *focusY, *focusZ, geo.NumDevices())
	time.Sleep(10 * time.Millisecond)
	return nil
}

// focusGain computes a single-focus phase delay per transducer: every
// transducer fires at full amplitude, phased so its wavefront arrives
// at target simultaneously with every other transducer's.
func focusGain(geo *geometry.Geometry, target geometry.Vec3) [][]drive.Drive {
	const twoPi = 2 * 3.14159265358979323846
	soundSpeedMMPerSec := geo.SoundSpeed * 1000

	out := make([][]drive.Drive, geo.NumDevices())
	for di := 0; di < geo.NumDevices(); di++ {
		dev := geo.Device(di)
		ds := make([]drive.Drive, dev.NumTransducers())
		for ti := range ds {
			t := dev.Transducer(ti)
			dist := target.Sub(t.Position).Norm()
			radians := t.AlignPhaseAt(dist, soundSpeedMMPerSec)
			ds[ti] = drive.Drive{Phase: radians / twoPi, Amp: 1.0}
		}
		out[di] = ds
	}
	return out
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "autd3ctl: %v\n", err)
		os.Exit(1)
	}
}

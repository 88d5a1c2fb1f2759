package geometry

import "fmt"

// Mode selects the on-wire encoding used for drives and the sync
// datagram. It is fixed at Geometry construction time and read by
// every operation's Pack.
type Mode int

const (
	Legacy Mode = iota
	Advanced
	AdvancedPhase
)

func (m Mode) String() string {
	switch m {
	case Legacy:
		return "Legacy"
	case Advanced:
		return "Advanced"
	case AdvancedPhase:
		return "AdvancedPhase"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Geometry is the ordered sequence of device blocks that make up a
// chained AUTD3 system, plus the process-wide acoustic parameters.
type Geometry struct {
	devices      []Device
	mode         Mode
	SoundSpeed   float64 // m/s
	Attenuation  float64 // Np/mm
}

// NewGeometry returns an empty Geometry with the given mode and default
// acoustic parameters (340 m/s, no attenuation).
func NewGeometry(mode Mode) *Geometry {
	return &Geometry{mode: mode, SoundSpeed: 340.0}
}

// Mode returns the immutable encoding mode chosen at construction.
func (g *Geometry) Mode() Mode { return g.mode }

// AddDevice appends a new device at the given position/rotation and
// returns its index.
func (g *Geometry) AddDevice(position Vec3, rotation Quat) int {
	id := len(g.devices)
	g.devices = append(g.devices, NewDevice(id, position, rotation))
	return id
}

func (g *Geometry) NumDevices() int { return len(g.devices) }

func (g *Geometry) NumTransducers() int { return len(g.devices) * NumTransInUnit }

func (g *Geometry) Device(i int) *Device { return &g.devices[i] }

func (g *Geometry) Devices() []Device { return g.devices }

// DeviceMap returns the per-device transducer count slice used to size a
// TxDatagram/RxDatagram.
func (g *Geometry) DeviceMap() []int {
	m := make([]int, len(g.devices))
	for i, d := range g.devices {
		m[i] = d.NumTransducers()
	}
	return m
}

// Center returns the average of every device's center.
func (g *Geometry) Center() Vec3 {
	var sum Vec3
	if len(g.devices) == 0 {
		return sum
	}
	for _, d := range g.devices {
		sum = sum.Add(d.Center())
	}
	return sum.Scale(1 / float64(len(g.devices)))
}

// CheckLegacySync verifies the Legacy-mode sync invariant: every
// transducer's cycle must equal DefaultCycle (4096). It returns a
// descriptive error naming the first offending device/transducer.
func (g *Geometry) CheckLegacySync() error {
	if g.mode != Legacy {
		return nil
	}
	for di, d := range g.devices {
		for ti, t := range d.transducers {
			if t.Cycle != DefaultCycle {
				return fmt.Errorf("geometry: legacy sync requires cycle=%d, device %d transducer %d has cycle=%d",
					DefaultCycle, di, ti, t.Cycle)
			}
		}
	}
	return nil
}

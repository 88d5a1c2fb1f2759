package geometry

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the CBOR-serializable form of a Geometry, used to persist
// or replay a calibrated device layout without repeating the grid
// construction math.
type Snapshot struct {
	Mode        Mode              `cbor:"mode"`
	SoundSpeed  float64           `cbor:"sound_speed"`
	Attenuation float64           `cbor:"attenuation"`
	Devices     []DeviceSnapshot  `cbor:"devices"`
}

// DeviceSnapshot captures one device's placement and any per-transducer
// overrides (cycle, mod_delay) that differ from the defaults a fresh
// NewDevice would produce.
type DeviceSnapshot struct {
	Position     Vec3                `cbor:"position"`
	Rotation     Quat                `cbor:"rotation"`
	Overrides    []TransducerOverride `cbor:"overrides,omitempty"`
}

// TransducerOverride records a non-default Cycle/ModDelay for a single
// transducer, addressed by its index within the device.
type TransducerOverride struct {
	Index    int    `cbor:"index"`
	Cycle    uint16 `cbor:"cycle"`
	ModDelay uint16 `cbor:"mod_delay"`
}

// Snapshot captures g's current state.
func (g *Geometry) Snapshot() Snapshot {
	s := Snapshot{
		Mode:        g.mode,
		SoundSpeed:  g.SoundSpeed,
		Attenuation: g.Attenuation,
	}
	for _, d := range g.devices {
		ds := DeviceSnapshot{Position: d.invOrigin, Rotation: d.invRotation.Conjugate()}
		for i, t := range d.transducers {
			if t.Cycle != DefaultCycle || t.ModDelay != 0 {
				ds.Overrides = append(ds.Overrides, TransducerOverride{
					Index: i, Cycle: t.Cycle, ModDelay: t.ModDelay,
				})
			}
		}
		s.Devices = append(s.Devices, ds)
	}
	return s
}

// Marshal encodes the snapshot as CBOR.
func (s Snapshot) Marshal() ([]byte, error) {
	return cbor.Marshal(s)
}

// Restore rebuilds a Geometry from an encoded snapshot, reapplying any
// per-transducer overrides after the default grid is laid out.
func Restore(data []byte) (*Geometry, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("geometry: decode snapshot: %w", err)
	}
	g := NewGeometry(s.Mode)
	g.SoundSpeed = s.SoundSpeed
	g.Attenuation = s.Attenuation
	for _, ds := range s.Devices {
		id := g.AddDevice(ds.Position, ds.Rotation)
		dev := g.Device(id)
		for _, ov := range ds.Overrides {
			if ov.Index < 0 || ov.Index >= dev.NumTransducers() {
				return nil, fmt.Errorf("geometry: override index %d out of range for device %d", ov.Index, id)
			}
			tp := dev.TransducerPtr(ov.Index)
			tp.Cycle = ov.Cycle
			tp.ModDelay = ov.ModDelay
		}
	}
	return g, nil
}

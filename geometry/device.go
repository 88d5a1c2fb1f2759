package geometry

// Device is one physical AUTD3 unit: an ordered sequence of transducers
// laid out on an 18x14 grid (minus three missing corners) with a single
// rigid position/rotation.
type Device struct {
	transducers []Transducer
	invRotation Quat
	invOrigin   Vec3
}

// NewDevice builds a Device at the given global position/rotation,
// assigning ids sequentially starting at id*NumTransInUnit.
func NewDevice(id int, position Vec3, rotation Quat) Device {
	trs := make([]Transducer, 0, NumTransInUnit)
	next := uint32(id * NumTransInUnit)
	for y := 0; y < NumTransY; y++ {
		for x := 0; x < NumTransX; x++ {
			if isMissingTransducer(x, y) {
				continue
			}
			local := Vec3{X: float64(x) * TransSpacingMM, Y: float64(y) * TransSpacingMM}
			global := position.Add(rotation.Rotate(local))
			trs = append(trs, NewTransducer(next, global, rotation))
			next++
		}
	}
	return Device{
		transducers: trs,
		invRotation: rotation.Conjugate(),
		invOrigin:   position,
	}
}

// Transducers returns the device's transducers in layout order.
func (d Device) Transducers() []Transducer { return d.transducers }

func (d Device) NumTransducers() int { return len(d.transducers) }

func (d Device) Transducer(i int) Transducer { return d.transducers[i] }

// TransducerPtr returns a mutable pointer to transducer i, e.g. to
// override its Cycle or ModDelay after construction.
func (d *Device) TransducerPtr(i int) *Transducer { return &d.transducers[i] }

// Center returns the average position of the device's transducers.
func (d Device) Center() Vec3 {
	var sum Vec3
	for _, t := range d.transducers {
		sum = sum.Add(t.Position)
	}
	if len(d.transducers) == 0 {
		return sum
	}
	return sum.Scale(1 / float64(len(d.transducers)))
}

// ToLocalPosition maps a point from the global frame into this device's
// local frame: the inverse of translate(origin) . rotate(quat).
func (d Device) ToLocalPosition(global Vec3) Vec3 {
	return d.invRotation.Rotate(global.Sub(d.invOrigin))
}

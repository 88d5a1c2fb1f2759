package geometry

import "github.com/autd3/autd3/drive"

// Physical unit layout constants.
const (
	NumTransX       = 18
	NumTransY       = 14
	TransSpacingMM  = 10.16
	DeviceWidthMM   = (NumTransX - 1) * TransSpacingMM
	DeviceHeightMM  = (NumTransY - 1) * TransSpacingMM
	NumTransInUnit  = NumTransX*NumTransY - 3
	DefaultCycle    = 4096
)

// missingCorners are the (x,y) grid positions absent from the physical
// 18x14 transducer unit.
var missingCorners = [3][2]int{{1, 1}, {2, 1}, {16, 1}}

func isMissingTransducer(x, y int) bool {
	for _, c := range missingCorners {
		if c[0] == x && c[1] == y {
			return true
		}
	}
	return false
}

// Transducer is a single drive element: its id, position and rotation in
// the global frame, the modulation delay applied to it, and its clock
// divisor (cycle).
type Transducer struct {
	ID       uint32
	Position Vec3
	Rotation Quat
	ModDelay uint16
	Cycle    uint16
}

// NewTransducer returns a Transducer with the default cycle (4096, 40kHz).
func NewTransducer(id uint32, pos Vec3, rot Quat) Transducer {
	return Transducer{ID: id, Position: pos, Rotation: rot, Cycle: DefaultCycle}
}

// Frequency returns the transducer's carrier frequency in Hz.
func (t Transducer) Frequency() float64 {
	return drive.FPGAClkFreq / float64(t.Cycle)
}

// Wavenumber returns 2*pi*frequency/soundSpeed (soundSpeed in mm/s if
// Position is in mm, or consistently scaled to any other unit).
func (t Transducer) Wavenumber(soundSpeed float64) float64 {
	return 2 * piConst * t.Frequency() / soundSpeed
}

const piConst = 3.14159265358979323846

// AlignPhaseAt returns the phase (in radians) that the transducer must
// add so its wavefront arrives in phase at distance d from it, at the
// given speed of sound. Callers divide by 2*pi and wrap into [0,1)
// before assigning it to a Drive.
func (t Transducer) AlignPhaseAt(d, soundSpeed float64) float64 {
	return d * t.Wavenumber(soundSpeed)
}

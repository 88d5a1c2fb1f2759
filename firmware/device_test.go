package firmware

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/op"
	"github.com/autd3/autd3/tx"
)

func oneDeviceGeo(mode geometry.Mode) *geometry.Geometry {
	g := geometry.NewGeometry(mode)
	g.AddDevice(geometry.Vec3{}, geometry.IdentityQuat)
	return g
}

// runUntilFinished drives an operation to completion against a single
// device, assigning each frame a fresh msg_id the way the controller's
// send loop would (the device dedups frames by msg_id).
func runUntilFinished(t *testing.T, o op.Operation, geo *geometry.Geometry, dev *Device) {
	t.Helper()
	d := tx.NewTxDatagram(geo.DeviceMap())
	o.Init()
	msgID := tx.NextMsgID(dev.msgID)
	for {
		assert.NoError(t, o.Pack(d))
		d.Header().SetMsgID(msgID)
		dev.Apply(d.HeaderBytes(), d.Body(0).Words())
		msgID = tx.NextMsgID(msgID)
		if o.IsFinished() {
			return
		}
	}
}

func TestStaticModulationAmpOneWritesFullScaleBytes(t *testing.T) {
	geo := oneDeviceGeo(geometry.Legacy)
	dev := NewDevice()

	m := &op.Modulation{Data: []byte{0xFF, 0xFF}, FreqDiv: op.DefaultModFreqDiv, MinFreq: op.FreqDivMinLegacy}
	runUntilFinished(t, m, geo, dev)

	assert.Equal(t, []byte{0xFF, 0xFF}, dev.ModBuffer()[:2])
	assert.Equal(t, uint32(2), dev.ModCycle())
}

func TestSquareWave150HzDutyHalfPattern(t *testing.T) {
	geo := oneDeviceGeo(geometry.Legacy)
	dev := NewDevice()

	data := make([]byte, 80)
	for i := 0; i < 13; i++ {
		data[i] = 0xFF
	}
	m := &op.Modulation{Data: data, FreqDiv: op.DefaultModFreqDiv, MinFreq: op.FreqDivMinLegacy}
	runUntilFinished(t, m, geo, dev)

	for i := 0; i < 13; i++ {
		assert.Equal(t, byte(0xFF), dev.ModBuffer()[i])
	}
	for i := 13; i < 26; i++ {
		assert.Equal(t, byte(0x00), dev.ModBuffer()[i])
	}
	assert.Equal(t, uint32(80), dev.ModCycle())
}

func TestClearResetsDeviceToDefaults(t *testing.T) {
	dev := NewDevice()
	assert.Equal(t, uint32(2), dev.ModCycle())
	assert.Equal(t, []byte{0, 0}, dev.ModBuffer())

	geo := oneDeviceGeo(geometry.Legacy)
	m := &op.Modulation{Data: []byte{0xAB, 0xCD, 0xEF}, FreqDiv: op.DefaultModFreqDiv, MinFreq: op.FreqDivMinLegacy}
	runUntilFinished(t, m, geo, dev)
	assert.Equal(t, uint32(3), dev.ModCycle())

	d := tx.NewTxDatagram(geo.DeviceMap())
	clr := &op.Clear{}
	clr.Init()
	assert.NoError(t, clr.Pack(d))
	dev.Apply(d.HeaderBytes(), d.Body(0).Words())

	assert.Equal(t, uint32(2), dev.ModCycle())
	assert.Equal(t, []byte{0, 0}, dev.ModBuffer())
}

func TestSyncLatchesCycleTable(t *testing.T) {
	geo := oneDeviceGeo(geometry.Legacy)
	dev := NewDevice()

	sync := &op.Sync{Geo: geo}
	runUntilFinished(t, sync, geo, dev)

	assert.NotZero(t, dev.Regs().CtlFlag&CtlRegSync)
	for i, c := range dev.Regs().CycleBase {
		assert.Equal(t, uint16(geometry.DefaultCycle), c, "transducer %d", i)
	}
}

func TestFocusSTM200PointsOnCircleSetsSTMCycle(t *testing.T) {
	geo := oneDeviceGeo(geometry.Legacy)
	dev := NewDevice()

	const n = 200
	points := make([]geometry.Vec3, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / n
		points[i] = geometry.Vec3{X: 30 * math.Cos(theta), Y: 30 * math.Sin(theta), Z: 150}
	}
	f := &op.FocusSTM{Geo: geo, Points: points, FreqDiv: op.DefaultSTMFreqDiv, SoundSpeed: 340000, MinFreq: op.FreqDivMinLegacy}
	runUntilFinished(t, f, geo, dev)

	assert.Equal(t, uint32(n), dev.STMCycle())
	assert.Len(t, dev.FocusPoints(), n)
}

func TestGainSTMLegacyPhaseHalfPacksFourEntriesPerGain(t *testing.T) {
	geo := oneDeviceGeo(geometry.Legacy)
	dev := NewDevice()

	total := geo.NumTransducers()
	gains := make([][]drive.Drive, 1)
	g := make([]drive.Drive, total)
	for j := range g {
		g[j] = drive.Drive{Phase: 0.25, Amp: 0.5}
	}
	gains[0] = g

	gstm := &op.GainSTMLegacy{Geo: geo, Gains: gains, Mode: op.PhaseHalf, FreqDiv: op.DefaultSTMFreqDiv}
	runUntilFinished(t, gstm, geo, dev)

	assert.Equal(t, uint32(4), dev.STMCycle())
	assert.Len(t, dev.GainLegacyWords(), 4*total)
}

func TestGainSTMAdvancedPhaseFullSynthesizesDutyFromCycleOffByOne(t *testing.T) {
	geo := oneDeviceGeo(geometry.Advanced)
	geo.Device(0).TransducerPtr(1).Cycle = 2000
	dev := NewDevice()

	sync := &op.Sync{Geo: geo}
	runUntilFinished(t, sync, geo, dev)

	total := geo.NumTransducers()
	gains := make([][]drive.Drive, 1)
	g := make([]drive.Drive, total)
	for j := range g {
		g[j] = drive.Drive{Phase: 0.5, Amp: 1.0}
	}
	gains[0] = g

	gstm := &op.GainSTMAdvanced{Geo: geo, Gains: gains, Mode: op.PhaseFull, FreqDiv: op.DefaultSTMFreqDiv}
	runUntilFinished(t, gstm, geo, dev)

	assert.Equal(t, uint32(1), dev.STMCycle())
	// Transducer i takes half of cycle[i+1]; the last one wraps to cycle[0].
	duty := dev.gainAdvBuffer[0].Duty
	assert.Equal(t, uint16(2000>>1), duty[0])
	assert.Equal(t, uint16(geometry.DefaultCycle>>1), duty[1])
	assert.Equal(t, uint16(geometry.DefaultCycle>>1), duty[TransNum-1])
}

package op

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

func newGeo(n int, mode geometry.Mode) *geometry.Geometry {
	g := geometry.NewGeometry(mode)
	for i := 0; i < n; i++ {
		g.AddDevice(geometry.Vec3{X: float64(i) * 200}, geometry.IdentityQuat)
	}
	return g
}

func TestClearProducesZeroedFrame(t *testing.T) {
	geo := newGeo(2, geometry.Legacy)
	d := tx.NewTxDatagram(geo.DeviceMap())
	c := &Clear{}
	c.Init()
	assert.NoError(t, c.Pack(d))
	assert.True(t, c.IsFinished())
	assert.Equal(t, uint8(tx.MsgClear), d.Header().MsgID())
	assert.Equal(t, 0, d.NumBodies)
}

func TestModulationConcatenationEqualsInput(t *testing.T) {
	geo := newGeo(1, geometry.Legacy)
	_ = geo
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	m := &Modulation{Data: data, FreqDiv: uint32(FreqDivMinLegacy), MinFreq: FreqDivMinLegacy}
	m.Init()

	var reassembled []byte
	d := tx.NewTxDatagram([]int{249})
	for !m.IsFinished() {
		assert.NoError(t, m.Pack(d))
		h := d.Header()
		payload := h.Payload()
		var chunk []byte
		if h.CPUCtl()&tx.CtlModBegin != 0 {
			chunk = payload[4 : 4+int(h.Size())]
		} else {
			chunk = payload[0:h.Size()]
		}
		reassembled = append(reassembled, chunk...)
	}
	assert.Equal(t, data, reassembled)
}

func TestModulationRejectsLowFreqDiv(t *testing.T) {
	m := &Modulation{Data: []byte{1}, FreqDiv: 10, MinFreq: FreqDivMinLegacy}
	m.Init()
	d := tx.NewTxDatagram([]int{249})
	err := m.Pack(d)
	assert.Error(t, err)
}

func TestModulationPackAfterFinishedIsIdempotent(t *testing.T) {
	m := &Modulation{Data: []byte{1, 2, 3}, FreqDiv: uint32(FreqDivMinLegacy), MinFreq: FreqDivMinLegacy}
	m.Init()
	d := tx.NewTxDatagram([]int{249})
	for !m.IsFinished() {
		assert.NoError(t, m.Pack(d))
	}
	sentBefore := m.sent
	assert.NoError(t, m.Pack(d))
	assert.Equal(t, sentBefore, m.sent)
	assert.NotZero(t, d.Header().CPUCtl()&tx.CtlModEnd)
}

func TestSyncLegacyRejectsNonDefaultCycle(t *testing.T) {
	geo := newGeo(1, geometry.Legacy)
	geo.Device(0).TransducerPtr(0).Cycle = 2000
	s := &Sync{Geo: geo}
	s.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())
	err := s.Pack(d)
	assert.Error(t, err)
}

func TestSyncLegacyWritesCycles(t *testing.T) {
	geo := newGeo(1, geometry.Legacy)
	s := &Sync{Geo: geo}
	s.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())
	assert.NoError(t, s.Pack(d))
	assert.True(t, s.IsFinished())
	for i := 0; i < geo.Device(0).NumTransducers(); i++ {
		assert.Equal(t, geometry.DefaultCycle, int(d.Body(0).Get(i)))
	}
}

func TestSyncAdvancedAcceptsAnyCycle(t *testing.T) {
	geo := newGeo(1, geometry.Advanced)
	geo.Device(0).TransducerPtr(0).Cycle = 2000
	s := &Sync{Geo: geo}
	s.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())
	assert.NoError(t, s.Pack(d))
}

func TestConfigSilencerRejectsBelowMinCycle(t *testing.T) {
	c := &ConfigSilencer{Step: 10, Cycle: 0}
	c.Init()
	d := tx.NewTxDatagram([]int{249})
	assert.Error(t, c.Pack(d))
}

func TestGainLegacyHeaderThenBodyThenFinished(t *testing.T) {
	geo := newGeo(1, geometry.Legacy)
	drives := make([]drive.Drive, geo.Device(0).NumTransducers())
	for i := range drives {
		drives[i] = drive.Drive{Phase: 0.25, Amp: 1.0}
	}
	g := &Gain{Geo: geo, Drives: [][]drive.Drive{drives}}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())

	assert.NoError(t, g.Pack(d))
	assert.False(t, g.IsFinished())

	assert.NoError(t, g.Pack(d))
	assert.True(t, g.IsFinished())
	assert.Equal(t, drive.LegacyWord(drives[0]), d.Body(0).Get(0))
}

func TestGainAdvancedSendsDutyThenPhase(t *testing.T) {
	geo := newGeo(1, geometry.Advanced)
	drives := make([]drive.Drive, geo.Device(0).NumTransducers())
	for i := range drives {
		drives[i] = drive.Drive{Phase: 0.5, Amp: 0.8}
	}
	g := &Gain{Geo: geo, Drives: [][]drive.Drive{drives}}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())

	assert.NoError(t, g.Pack(d)) // header
	assert.NoError(t, g.Pack(d)) // duty
	assert.False(t, g.IsFinished())
	assert.Equal(t, drive.AdvancedDuty(drives[0], geometry.DefaultCycle), d.Body(0).Get(0))

	assert.NoError(t, g.Pack(d)) // phase
	assert.True(t, g.IsFinished())
	assert.Equal(t, drive.AdvancedPhase(drives[0], geometry.DefaultCycle), d.Body(0).Get(0))
}

func TestGroupZeroesUnselectedDeviceBodies(t *testing.T) {
	geo := newGeo(2, geometry.Legacy)
	s := &Sync{Geo: geo}
	grp := &Group{Inner: s, Selected: []bool{true, false}}
	grp.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())
	assert.NoError(t, grp.Pack(d))
	assert.Equal(t, 1, d.NumBodies)
	for i := 0; i < d.Body(1).Len(); i++ {
		assert.Equal(t, uint16(0), d.Body(1).Get(i))
	}
}

func TestFreqDivMinPolicyValues(t *testing.T) {
	assert.Equal(t, FreqDivMinPolicy(1160), FreqDivMinLegacy)
	assert.Equal(t, FreqDivMinPolicy(580), FreqDivMinAdvanced)
}

package op

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

func makeGains(geo *geometry.Geometry, n int) [][]drive.Drive {
	total := geo.NumTransducers()
	gains := make([][]drive.Drive, n)
	for i := range gains {
		g := make([]drive.Drive, total)
		for j := range g {
			g[j] = drive.Drive{Phase: float64(i) / float64(n), Amp: 0.5}
		}
		gains[i] = g
	}
	return gains
}

func TestGainSTMLegacyPhaseHalfPacksFourGainsPerFrame(t *testing.T) {
	geo := newGeo(1, geometry.Legacy)
	gains := makeGains(geo, 8)
	g := &GainSTMLegacy{Geo: geo, Gains: gains, Mode: PhaseHalf, FreqDiv: DefaultSTMFreqDiv}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())

	assert.NoError(t, g.Pack(d)) // header frame
	assert.False(t, g.IsFinished())

	frames := 0
	for !g.IsFinished() {
		assert.NoError(t, g.Pack(d))
		frames++
	}
	assert.Equal(t, 2, frames) // 8 gains / 4 per frame
}

func TestGainSTMAdvancedRejectsPhaseHalf(t *testing.T) {
	geo := newGeo(1, geometry.Advanced)
	g := &GainSTMAdvanced{Geo: geo, Gains: makeGains(geo, 2), Mode: PhaseHalf, FreqDiv: DefaultSTMFreqDiv}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())
	assert.Error(t, g.Pack(d))
}

func TestGainSTMAdvancedPhaseDutyFullAlternatesHalves(t *testing.T) {
	geo := newGeo(1, geometry.Advanced)
	gains := makeGains(geo, 2)
	g := &GainSTMAdvanced{Geo: geo, Gains: gains, Mode: PhaseDutyFull, FreqDiv: DefaultSTMFreqDiv}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())

	assert.NoError(t, g.Pack(d)) // header
	assert.NoError(t, g.Pack(d)) // phase[0]
	assert.Zero(t, d.Header().CPUCtl()&tx.CtlIsDuty)
	assert.NoError(t, g.Pack(d)) // duty[0]
	assert.NotZero(t, d.Header().CPUCtl()&tx.CtlIsDuty)
	assert.False(t, g.IsFinished())
}

func TestGainSTMAdvancedPackAfterFinishedIsIdempotent(t *testing.T) {
	geo := newGeo(1, geometry.Advanced)
	gains := makeGains(geo, 2)
	g := &GainSTMAdvanced{Geo: geo, Gains: gains, Mode: PhaseFull, FreqDiv: DefaultSTMFreqDiv}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())

	assert.NoError(t, g.Pack(d)) // header
	for !g.IsFinished() {
		assert.NoError(t, g.Pack(d))
	}
	sentBefore := g.sent
	assert.NoError(t, g.Pack(d))
	assert.Equal(t, sentBefore, g.sent)
	assert.NotZero(t, d.Header().CPUCtl()&tx.CtlSTMEnd)
}

func TestGainSTMAdvancedPhaseOnlyPhaseFrames(t *testing.T) {
	geo := newGeo(1, geometry.AdvancedPhase)
	gains := makeGains(geo, 3)
	g := &GainSTMAdvancedPhase{Geo: geo, Gains: gains, FreqDiv: DefaultSTMFreqDiv}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())

	assert.NoError(t, g.Pack(d)) // header
	frames := 0
	for !g.IsFinished() {
		assert.NoError(t, g.Pack(d))
		assert.Zero(t, d.Header().CPUCtl()&tx.CtlIsDuty)
		frames++
	}
	assert.Equal(t, 3, frames)
}

func TestGainSTMAdvancedPhasePackAfterFinishedIsIdempotent(t *testing.T) {
	geo := newGeo(1, geometry.AdvancedPhase)
	gains := makeGains(geo, 3)
	g := &GainSTMAdvancedPhase{Geo: geo, Gains: gains, FreqDiv: DefaultSTMFreqDiv}
	g.Init()
	d := tx.NewTxDatagram(geo.DeviceMap())

	assert.NoError(t, g.Pack(d)) // header
	for !g.IsFinished() {
		assert.NoError(t, g.Pack(d))
	}
	sentBefore := g.sent
	assert.NoError(t, g.Pack(d))
	assert.Equal(t, sentBefore, g.sent)
	assert.NotZero(t, d.Header().CPUCtl()&tx.CtlSTMEnd)
}

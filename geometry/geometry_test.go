package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddDeviceAssignsSequentialIDs(t *testing.T) {
	g := NewGeometry(Legacy)
	g.AddDevice(Vec3{}, IdentityQuat)
	g.AddDevice(Vec3{X: 200}, IdentityQuat)
	assert.Equal(t, 2, g.NumDevices())
	assert.Equal(t, NumTransInUnit*2, g.NumTransducers())
	assert.Equal(t, uint32(0), g.Device(0).Transducer(0).ID)
	assert.Equal(t, uint32(NumTransInUnit), g.Device(1).Transducer(0).ID)
}

func TestDeviceMapMatchesTransducerCounts(t *testing.T) {
	g := NewGeometry(Advanced)
	g.AddDevice(Vec3{}, IdentityQuat)
	g.AddDevice(Vec3{}, IdentityQuat)
	assert.Equal(t, []int{NumTransInUnit, NumTransInUnit}, g.DeviceMap())
}

func TestCheckLegacySyncPassesByDefault(t *testing.T) {
	g := NewGeometry(Legacy)
	g.AddDevice(Vec3{}, IdentityQuat)
	assert.NoError(t, g.CheckLegacySync())
}

func TestCheckLegacySyncFailsOnOverriddenCycle(t *testing.T) {
	g := NewGeometry(Legacy)
	g.AddDevice(Vec3{}, IdentityQuat)
	g.Device(0).TransducerPtr(5).Cycle = 2000
	err := g.CheckLegacySync()
	assert.Error(t, err)
}

func TestCheckLegacySyncSkippedInAdvancedMode(t *testing.T) {
	g := NewGeometry(Advanced)
	g.AddDevice(Vec3{}, IdentityQuat)
	g.Device(0).TransducerPtr(5).Cycle = 2000
	assert.NoError(t, g.CheckLegacySync())
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := NewGeometry(Advanced)
	g.SoundSpeed = 340.29
	g.Attenuation = 0.0
	g.AddDevice(Vec3{X: 10, Y: 20, Z: 30}, IdentityQuat)
	g.Device(0).TransducerPtr(3).Cycle = 3000
	g.Device(0).TransducerPtr(3).ModDelay = 7

	data, err := g.Snapshot().Marshal()
	assert.NoError(t, err)

	restored, err := Restore(data)
	assert.NoError(t, err)
	assert.Equal(t, Advanced, restored.Mode())
	assert.Equal(t, 340.29, restored.SoundSpeed)
	assert.Equal(t, 1, restored.NumDevices())
	assert.Equal(t, uint16(3000), restored.Device(0).Transducer(3).Cycle)
	assert.Equal(t, uint16(7), restored.Device(0).Transducer(3).ModDelay)
	assert.Equal(t, uint16(DefaultCycle), restored.Device(0).Transducer(0).Cycle)
}

func TestCenterAveragesDeviceCenters(t *testing.T) {
	g := NewGeometry(Legacy)
	g.AddDevice(Vec3{}, IdentityQuat)
	c := g.Center()
	// 14 rows of x = 0..17 (sum 153 each), minus the missing x = 1, 2, 16:
	// 2123 spacings over 249 transducers.
	assert.InDelta(t, 2123*TransSpacingMM/NumTransInUnit, c.X, 1e-9)
}

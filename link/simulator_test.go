package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autd3/autd3/tx"
)

func TestSimulatorSendReceiveRoundTripsMsgID(t *testing.T) {
	sim := NewSimulator()
	deviceMap := []int{249, 249}
	require.NoError(t, sim.Open(deviceMap))
	defer sim.Close()

	d := tx.NewTxDatagram(deviceMap)
	d.Header().SetMsgID(tx.MsgBegin)
	r := tx.NewRxDatagram(len(deviceMap))

	ok, err := SendReceive(sim, d, r, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, r.IsMsgProcessed(tx.MsgBegin))
}

func TestSimulatorExposesUnderlyingDevices(t *testing.T) {
	sim := NewSimulator()
	require.NoError(t, sim.Open([]int{249}))
	defer sim.Close()

	assert.NotNil(t, sim.Device(0))
	assert.Equal(t, uint32(2), sim.Device(0).ModCycle())
}

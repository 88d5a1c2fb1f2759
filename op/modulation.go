package op

import (
	"encoding/binary"

	"github.com/autd3/autd3/tx"
)

const (
	modHeaderInitialDataSize    = 120
	modHeaderSubsequentDataSize = 124
)

// Modulation fragments an arbitrary-length byte envelope across as many
// frames as needed, carrying freq_div in the first frame's header
// payload alongside the first chunk of data.
type Modulation struct {
	Data    []byte
	FreqDiv uint32
	MinFreq FreqDivMinPolicy

	sent int
}

func (m *Modulation) Init() { m.sent = 0 }

func (m *Modulation) Pack(d *tx.TxDatagram) error {
	if m.FreqDiv < uint32(m.MinFreq) {
		return wireErrorf("modulation", "freq_div %d below minimum %d", m.FreqDiv, uint32(m.MinFreq))
	}

	h := d.Header()
	h.SetCPUCtlBit(tx.CtlMod, true)

	first := m.sent == 0
	payload := h.Payload()

	var chunk []byte
	var n int
	if first {
		h.SetCPUCtlBit(tx.CtlModBegin, true)
		binary.LittleEndian.PutUint32(payload[0:4], m.FreqDiv)
		n = modHeaderInitialDataSize
		if rem := len(m.Data) - m.sent; rem < n {
			n = rem
		}
		chunk = payload[4 : 4+n]
	} else {
		h.SetCPUCtlBit(tx.CtlModBegin, false)
		n = modHeaderSubsequentDataSize
		if rem := len(m.Data) - m.sent; rem < n {
			n = rem
		}
		chunk = payload[0:n]
	}
	copy(chunk, m.Data[m.sent:m.sent+n])
	m.sent += n

	h.SetSize(uint8(n))

	finished := m.sent >= len(m.Data)
	h.SetCPUCtlBit(tx.CtlModEnd, finished)

	d.NumBodies = 0
	return nil
}

func (m *Modulation) IsFinished() bool { return m.sent >= len(m.Data) }

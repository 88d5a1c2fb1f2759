package tx

import "encoding/binary"

// TxDatagram is the per-tick wire frame: a 128-byte GlobalHeader followed
// by the concatenation of every device's body, addressed through a
// prefix-sum table built from the device map at construction.
//
// NumBodies carries how many device bodies are live this frame; devices
// beyond NumBodies are still transmitted (the backing bytes exist) but
// their CPU ignores them.
type TxDatagram struct {
	NumBodies int

	header       []byte
	bodyWords    []uint16
	deviceOffset []int // device index -> word offset into bodyWords
}

// NewTxDatagram allocates a TxDatagram sized for the given device map,
// where deviceMap[i] is the transducer count of device i (249 in the
// standard unit).
func NewTxDatagram(deviceMap []int) *TxDatagram {
	offsets := make([]int, len(deviceMap)+1)
	for i, n := range deviceMap {
		offsets[i+1] = offsets[i] + n
	}
	total := offsets[len(deviceMap)]
	return &TxDatagram{
		NumBodies:    len(deviceMap),
		header:       make([]byte, HeaderSize),
		bodyWords:    make([]uint16, total),
		deviceOffset: offsets,
	}
}

// NumDevices returns the total device count this datagram was sized for
// (independent of the currently-live NumBodies).
func (tx *TxDatagram) NumDevices() int { return len(tx.deviceOffset) - 1 }

// EffectiveSize is the wire size, in bytes, of the live portion of this
// frame: HeaderSize + 2*transducers-in-live-devices.
func (tx *TxDatagram) EffectiveSize() int {
	n := tx.deviceOffset[tx.NumBodies]
	return HeaderSize + 2*n
}

// BodiesSize is the full body region size in bytes, regardless of
// NumBodies.
func (tx *TxDatagram) BodiesSize() int {
	return 2 * len(tx.bodyWords)
}

// Header returns the mutable GlobalHeader view.
func (tx *TxDatagram) Header() Header { return Header{buf: tx.header} }

// HeaderBytes returns the raw backing bytes of the GlobalHeader, for
// transports and device emulation that operate below the Header view.
func (tx *TxDatagram) HeaderBytes() []byte { return tx.header }

// Body returns the mutable body view for device i.
func (tx *TxDatagram) Body(i int) Body {
	start, end := tx.deviceOffset[i], tx.deviceOffset[i+1]
	return Body{words: tx.bodyWords[start:end]}
}

// BodiesPtr returns the full concatenated body word buffer across every
// device, for callers that write the same shape of data to every device
// body in one pass.
func (tx *TxDatagram) BodiesPtr() []uint16 { return tx.bodyWords }

// Clone returns a deep copy sharing no backing storage with tx.
func (tx *TxDatagram) Clone() *TxDatagram {
	out := &TxDatagram{
		NumBodies:    tx.NumBodies,
		header:       append([]byte(nil), tx.header...),
		bodyWords:    append([]uint16(nil), tx.bodyWords...),
		deviceOffset: append([]int(nil), tx.deviceOffset...),
	}
	return out
}

// Clear zeroes the header and every body word, but keeps NumBodies and
// the device map intact.
func (tx *TxDatagram) Clear() {
	for i := range tx.header {
		tx.header[i] = 0
	}
	for i := range tx.bodyWords {
		tx.bodyWords[i] = 0
	}
}

// Bytes serializes the full frame (header + every device body, little
// endian throughout) into a fresh byte slice suitable for Link.Send.
func (tx *TxDatagram) Bytes() []byte {
	out := make([]byte, HeaderSize+2*len(tx.bodyWords))
	copy(out, tx.header)
	for i, w := range tx.bodyWords {
		binary.LittleEndian.PutUint16(out[HeaderSize+2*i:], w)
	}
	return out
}

package tx

// Body is the mutable 16-bit-word view over one device's body region
// within a TxDatagram. Its interpretation (drive words, cycle table,
// STM initial/subsequent frame, mod-delay table) is selected by the
// operation currently packing it.
type Body struct {
	words []uint16
}

// Len returns the number of 16-bit words available in this device's body.
func (b Body) Len() int { return len(b.words) }

func (b Body) Get(i int) uint16     { return b.words[i] }
func (b Body) Set(i int, v uint16)  { b.words[i] = v }
func (b Body) Words() []uint16      { return b.words }

// SetWords overwrites the leading len(vs) words of the body.
func (b Body) SetWords(vs []uint16) {
	copy(b.words, vs)
}

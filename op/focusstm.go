package op

import (
	"github.com/autd3/autd3/drive"
	"github.com/autd3/autd3/geometry"
	"github.com/autd3/autd3/tx"
)

const (
	focusSTMMetaWords        = 7 // size, freq_div(2), sound_speed(2), start_idx, finish_idx
	focusSTMWordsPerPoint    = 4
	focusSTMSubsequentPoints = 30
	// focusSTMNoIndex marks start_idx/finish_idx as unset; the firmware
	// treats the sentinel as "do not gate on this index".
	focusSTMNoIndex = 0xFFFF
)

// FocusSTM streams a sequence of focal points, transforming each one
// from the global frame into every device's local frame before
// packing it. Flags: FPGA::STMMode asserted and STMGainMode cleared
// for the whole operation, CPU::STMBegin on the first frame and
// CPU::STMEnd on the frame carrying the final point.
type FocusSTM struct {
	Geo        *geometry.Geometry
	Points     []geometry.Vec3
	FreqDiv    uint32
	SoundSpeed uint32 // fixed-point sound speed register value
	MinFreq    FreqDivMinPolicy
	// StartIdx/FinishIdx gate STM playback to a sub-range; nil means
	// unset (the whole buffer is used).
	StartIdx, FinishIdx *uint16

	sent int // points already written
}

func (f *FocusSTM) Init() { f.sent = 0 }

func (f *FocusSTM) Pack(d *tx.TxDatagram) error {
	if len(f.Points) > FocusSTMBufSizeMax {
		return wireErrorf("focus_stm", "point count %d exceeds buffer cap %d", len(f.Points), FocusSTMBufSizeMax)
	}
	if f.FreqDiv < uint32(f.MinFreq) {
		return wireErrorf("focus_stm", "freq_div %d below minimum %d", f.FreqDiv, uint32(f.MinFreq))
	}
	total := uint16(len(f.Points))
	if f.StartIdx != nil && *f.StartIdx >= total {
		return wireErrorf("focus_stm", "start_idx %d out of range [0,%d)", *f.StartIdx, total)
	}
	if f.FinishIdx != nil && *f.FinishIdx >= total {
		return wireErrorf("focus_stm", "finish_idx %d out of range [0,%d)", *f.FinishIdx, total)
	}

	h := d.Header()
	h.SetFPGACtlBit(tx.CtlOpMode, true)
	h.SetFPGACtlBit(tx.CtlSTMGainMode, false)
	h.SetCPUCtlBit(tx.CtlWriteBody, true)
	h.SetSize(0)

	first := f.sent == 0
	h.SetCPUCtlBit(tx.CtlSTMBegin, first)

	var capacity int
	if first {
		capacity = (geometry.NumTransInUnit - focusSTMMetaWords) / focusSTMWordsPerPoint
	} else {
		capacity = focusSTMSubsequentPoints
	}
	n := len(f.Points) - f.sent
	if n > capacity {
		n = capacity
	}

	for di := 0; di < f.Geo.NumDevices(); di++ {
		body := d.Body(di)
		dev := f.Geo.Device(di)
		words := body.Words()

		// words[0] is the number of points carried by this frame.
		words[0] = uint16(n)
		offset := 1
		if first {
			putU32Words(words, 1, f.FreqDiv)
			putU32Words(words, 3, f.SoundSpeed)
			words[5] = optIndex(f.StartIdx)
			words[6] = optIndex(f.FinishIdx)
			offset = focusSTMMetaWords
		}

		for i := 0; i < n; i++ {
			p := f.Points[f.sent+i]
			local := dev.ToLocalPosition(p)
			packed := drive.EncodeFocus(local.X, local.Y, local.Z, 0)
			wi := offset + i*focusSTMWordsPerPoint
			words[wi+0] = uint16(packed)
			words[wi+1] = uint16(packed >> 16)
			words[wi+2] = uint16(packed >> 32)
			words[wi+3] = uint16(packed >> 48)
		}
	}
	d.NumBodies = f.Geo.NumDevices()
	f.sent += n

	finished := f.sent >= len(f.Points)
	h.SetCPUCtlBit(tx.CtlSTMEnd, finished)

	return nil
}

func (f *FocusSTM) IsFinished() bool { return f.sent >= len(f.Points) }

func optIndex(idx *uint16) uint16 {
	if idx == nil {
		return focusSTMNoIndex
	}
	return *idx
}

func putU32Words(words []uint16, i int, v uint32) {
	words[i] = uint16(v)
	words[i+1] = uint16(v >> 16)
}

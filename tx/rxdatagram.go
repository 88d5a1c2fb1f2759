package tx

// RxMessage is a single device's two-byte ack reply: the high byte
// multiplexes msg_id echo, the low byte a version or FPGA-info byte.
type RxMessage struct {
	Ack   uint8
	MsgID uint8
}

// RxDatagram holds one RxMessage per device, reused across ticks by the
// controller.
type RxDatagram struct {
	messages []RxMessage
}

// NewRxDatagram allocates an RxDatagram for numDevices devices.
func NewRxDatagram(numDevices int) *RxDatagram {
	return &RxDatagram{messages: make([]RxMessage, numDevices)}
}

// Messages returns the mutable backing slice, for a Link implementation
// to populate directly.
func (rx *RxDatagram) Messages() []RxMessage { return rx.messages }

// Len returns the number of device slots.
func (rx *RxDatagram) Len() int { return len(rx.messages) }

// At returns the RxMessage for device i.
func (rx *RxDatagram) At(i int) RxMessage { return rx.messages[i] }

// IsMsgProcessed reports whether every device in rx echoed msgID.
func (rx *RxDatagram) IsMsgProcessed(msgID uint8) bool {
	for _, m := range rx.messages {
		if m.MsgID != msgID {
			return false
		}
	}
	return true
}

// CopyFrom overwrites rx's messages from src, which must have the same
// length.
func (rx *RxDatagram) CopyFrom(src []RxMessage) {
	copy(rx.messages, src)
}

// Clear zeroes every message slot.
func (rx *RxDatagram) Clear() {
	for i := range rx.messages {
		rx.messages[i] = RxMessage{}
	}
}

package firmware

import "sync/atomic"

// rxRingSize is the fixed capacity of the fieldbus RX ring (§4.F).
const rxRingSize = 64

// rxFrame is one inbound datagram frame as handed from the fieldbus
// interrupt to the 1ms tick consumer.
type rxFrame struct {
	header []byte
	body   []byte
}

// rxRing is a classic SPSC bounded queue: the producer (interrupt)
// pushes, the consumer (tick) pops one per iteration. On a full ring
// the producer drops the newest frame rather than blocking or
// overwriting; the host is expected to observe the missing ack and
// retry.
type rxRing struct {
	buf        [rxRingSize]rxFrame
	head, tail atomic.Uint64 // head: next slot to pop; tail: next slot to push
}

func (r *rxRing) push(f rxFrame) bool {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head >= rxRingSize {
		return false // full: drop newest
	}
	r.buf[tail%rxRingSize] = f
	r.tail.Store(tail + 1)
	return true
}

func (r *rxRing) pop() (rxFrame, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return rxFrame{}, false
	}
	f := r.buf[head%rxRingSize]
	r.head.Store(head + 1)
	return f, true
}

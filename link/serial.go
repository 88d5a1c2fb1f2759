package link

import (
	"bufio"
	"errors"
	"runtime"

	"github.com/tarm/serial"

	"github.com/autd3/autd3/tx"
)

// baudRate is the fixed rate the reference firmware's UART bridge runs
// at; there is no negotiation step.
const baudRate = 9600 * 25 // 240000, matching the EtherCAT-to-UART bridge's fixed clock

// Serial is a Link over a real serial cable, one TxDatagram.Bytes()
// frame per Send and one two-byte RxMessage per device per Receive.
type Serial struct {
	dev  string
	port *serial.Port
	w    *bufio.Writer
	r    *bufio.Reader

	numDevices int
}

// NewSerial returns a Serial bound to dev. An empty dev probes the
// platform's usual device names.
func NewSerial(dev string) *Serial {
	return &Serial{dev: dev}
}

func candidateDevices(dev string) []string {
	if dev != "" {
		return []string{dev}
	}
	switch runtime.GOOS {
	case "windows":
		return []string{"COM3", "COM4", "COM5"}
	case "linux":
		return []string{"/dev/ttyUSB0", "/dev/ttyACM0"}
	default:
		return nil
	}
}

func (s *Serial) Open(deviceMap []int) error {
	devices := candidateDevices(s.dev)
	if len(devices) == 0 {
		return errors.New("link: no serial device specified")
	}

	var firstErr error
	for _, dev := range devices {
		cfg := &serial.Config{Name: dev, Baud: baudRate}
		p, err := serial.OpenPort(cfg)
		if err == nil {
			s.port = p
			s.w = bufio.NewWriter(p)
			s.r = bufio.NewReader(p)
			s.numDevices = len(deviceMap)
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Send writes the full frame (header followed by every device body) in
// one batch, matching the bridge's expectation of receiving a complete
// datagram per write.
func (s *Serial) Send(d *tx.TxDatagram) error {
	if s.port == nil {
		return errors.New("link: serial port not open")
	}
	if _, err := s.w.Write(d.Bytes()); err != nil {
		return err
	}
	return s.w.Flush()
}

// Receive reads back one two-byte RxMessage per device: the ack's high
// byte first (msg_id echo), then the low byte (version or FPGA info).
func (s *Serial) Receive(r *tx.RxDatagram) error {
	if s.port == nil {
		return errors.New("link: serial port not open")
	}
	msgs := r.Messages()
	for i := 0; i < s.numDevices && i < len(msgs); i++ {
		hi, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		lo, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		msgs[i] = tx.RxMessage{MsgID: hi, Ack: lo}
	}
	return nil
}

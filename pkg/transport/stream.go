package transport

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
	"github.com/tarm/serial"
)

// SerialConfig selects the serial port a Stream is opened on.
type SerialConfig struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate
	Baud int

	// ReadTimeout bounds the wait for the reply byte (0 = blocking)
	ReadTimeout time.Duration
}

// Stream exchanges bytes over a byte stream: it writes the byte sent and
// reads exactly one byte back. A microcontroller on the other end of a
// serial port can act as the SPI peer this way.
type Stream struct {
	rw  io.ReadWriter
	log log.Logger
}

// NewStream exchanges over rw.
func NewStream(rw io.ReadWriter, l log.Logger) *Stream {
	if l == nil {
		l = log.With("component", "stream")
	}
	return &Stream{rw: rw, log: l}
}

// OpenSerial opens a serial port and exchanges over it.
func OpenSerial(cfg SerialConfig, l log.Logger) (*Stream, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Device)
	}

	if l == nil {
		l = log.With("component", "serial")
	}
	return NewStream(port, l.With("device", cfg.Device)), nil
}

// Exchange writes tx and returns the byte read back, or IdleByte if the
// stream failed.
func (s *Stream) Exchange(tx byte) byte {
	rx, err := s.exchange(tx)
	if err != nil {
		s.log.Errorf("exchange %#02x: %v", tx, err)
		return IdleByte
	}
	return rx
}

func (s *Stream) exchange(tx byte) (byte, error) {
	if _, err := s.rw.Write([]byte{tx}); err != nil {
		return 0, errors.Wrap(err, "write")
	}

	buf := make([]byte, 1)
	n, err := s.rw.Read(buf)
	if err != nil {
		return 0, errors.Wrap(err, "read")
	}
	if n != 1 {
		return 0, ErrShortExchange
	}
	return buf[0], nil
}

// Close closes the underlying stream if it can be closed.
func (s *Stream) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

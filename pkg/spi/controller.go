// Package spi models the register file of a minimal SPI master controller.
//
// The controller exposes five 32-bit registers in a 0x1000 byte window, drives
// two active-low chip-select lines and one active-high interrupt line, and
// exchanges one byte with an external peer for every qualifying data register
// write. Every access is synchronous: a transfer starts and completes inside
// the Write32 call that triggers it.
package spi

import (
	"fmt"
	"sync"

	"github.com/prometheus/common/log"

	"github.com/sema/spictl/pkg/signal"
)

// idleByte is what the receive line reads when no peer drives it.
const idleByte byte = 0xFF

// Exchanger is the serial peer of the controller. Exchange shifts tx out and
// returns the byte shifted in during the same transfer. It cannot fail.
type Exchanger interface {
	Exchange(tx byte) (rx byte)
}

// ExchangerFunc adapts a plain function to an Exchanger.
type ExchangerFunc func(tx byte) byte

// Exchange calls f(tx).
func (f ExchangerFunc) Exchange(tx byte) byte {
	return f(tx)
}

// Controller is one SPI master instance. All entry points serialize on a
// single mutex; output lines and the exchanger are called with that mutex held
// and must not call back into the controller's exported methods.
type Controller struct {
	mu sync.Mutex

	cr1    uint32
	cr2    uint32
	sr     uint32
	dr     uint32
	csctrl uint32

	// rxData is the last byte received from the peer. Reads of DR return it.
	rxData byte

	// Mirrors of CR1 and CSCTRL bits, updated on every write to their register
	spe    bool
	mstr   bool
	cs0En  bool
	cs0Act bool
	cs1En  bool
	cs1Act bool

	exchanger    Exchanger
	chipSelects  [2]signal.Line
	interrupt    signal.Line
	log          log.Logger
	onGuestError func(GuestError)
}

// Option configures a Controller at construction.
type Option func(c *Controller)

// WithExchanger connects the serial peer used for transfers.
func WithExchanger(e Exchanger) Option {
	return func(c *Controller) {
		c.exchanger = e
	}
}

// WithChipSelectLines connects the CS0 and CS1 outputs. Either may be nil.
func WithChipSelectLines(cs0, cs1 signal.Line) Option {
	return func(c *Controller) {
		if cs0 != nil {
			c.chipSelects[0] = cs0
		}
		if cs1 != nil {
			c.chipSelects[1] = cs1
		}
	}
}

// WithInterruptLine connects the interrupt output.
func WithInterruptLine(irq signal.Line) Option {
	return func(c *Controller) {
		if irq != nil {
			c.interrupt = irq
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l log.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithGuestErrorCallback is called (if set) for every access to an offset
// that holds no register.
func WithGuestErrorCallback(cb func(GuestError)) Option {
	return func(c *Controller) {
		c.onGuestError = cb
	}
}

// New creates a controller and resets it, which drives every output line once.
func New(opts ...Option) *Controller {
	c := &Controller{
		chipSelects: [2]signal.Line{signal.Discard, signal.Discard},
		interrupt:   signal.Discard,
		log:         log.With("device", "spi"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reset()
	return c
}

// Reset restores the power-on register values and re-drives all outputs.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cr1 = 0
	c.cr2 = 0
	c.sr = SRTXE
	c.dr = 0
	c.csctrl = 0

	c.rxData = 0
	c.spe = false
	c.mstr = false
	c.cs0En = false
	c.cs0Act = false
	c.cs1En = false
	c.cs1Act = false

	c.updateChipSelects()
	c.updateInterrupt()
}

// Read32 is exposed in the address space, and may be read by the program
func (c *Controller) Read32(offset uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch register(offset) {
	case registerCR1:
		return c.cr1
	case registerCR2:
		return c.cr2
	case registerSR:
		return c.sr
	case registerDR:
		return c.readData()
	case registerCSCTRL:
		return c.csctrl
	}

	c.guestError(GuestError{Offset: offset})
	return 0
}

// Write32 is exposed in the address space, and may be written to by the program
func (c *Controller) Write32(offset uint32, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch register(offset) {
	case registerCR1:
		c.cr1 = v
		c.spe = readBits(v, CR1SPE)
		c.mstr = readBits(v, CR1MSTR)
	case registerCR2:
		c.cr2 = v
		c.updateInterrupt()
	case registerSR:
		// Only the sticky error bits can be cleared, by writing 1 to them
		c.sr &^= v & (SROVR | SRUDR)
		c.updateInterrupt()
	case registerDR:
		c.writeData(v)
	case registerCSCTRL:
		c.csctrl = v
		c.cs0En = readBits(v, CSCTRLCS0Enable)
		c.cs1En = readBits(v, CSCTRLCS1Enable)
		c.cs0Act = readBits(v, CSCTRLCS0Active)
		c.cs1Act = readBits(v, CSCTRLCS1Active)
		c.updateChipSelects()
	default:
		c.guestError(GuestError{Write: true, Offset: offset, Value: v})
	}
}

// Size is the length of the register window in bytes.
func (c *Controller) Size() uint32 {
	return WindowSize
}

// AccessWidth is the only access width, in bytes, the window accepts.
func (c *Controller) AccessWidth() int {
	return AccessWidth
}

func (c *Controller) guestError(e GuestError) {
	l := c.log.With("offset", fmt.Sprintf("%#x", e.Offset))
	if e.Write {
		l.With("value", fmt.Sprintf("%#x", e.Value)).Warn("bad write offset")
	} else {
		l.Warn("bad read offset")
	}

	if c.onGuestError != nil {
		c.onGuestError(e)
	}
}

func (c *Controller) String() string {
	return "SPI"
}

// Package board assembles a memory-mapped address space with an SPI
// controller, its serial peer and probes on every output line.
package board

import (
	"github.com/pkg/errors"
	"github.com/prometheus/common/log"

	"github.com/sema/spictl/pkg/mmio"
	"github.com/sema/spictl/pkg/signal"
	"github.com/sema/spictl/pkg/spi"
	"github.com/sema/spictl/pkg/ssi"
)

// DefaultBase is where the SPI window is mapped unless configured otherwise.
const DefaultBase uint32 = 0x10018000

// Board is a minimal machine: one SPI controller on a memory-mapped bus.
type Board struct {
	Base uint32

	Bus *mmio.Bus
	SPI *spi.Controller
	SSI *ssi.Bus

	// Probes on the controller outputs
	CS0 *signal.Probe
	CS1 *signal.Probe
	IRQ *signal.Probe

	peer        spi.Exchanger
	peripherals [ssi.ChipSelects][]ssi.Peripheral
	log         log.Logger
}

// Option configures a Board.
type Option func(b *Board)

// WithBase maps the SPI window at base.
func WithBase(base uint32) Option {
	return func(b *Board) {
		b.Base = base
	}
}

// WithPeer connects the controller directly to e instead of the serial bus.
func WithPeer(e spi.Exchanger) Option {
	return func(b *Board) {
		b.peer = e
	}
}

// WithPeripheral attaches p to chip-select cs of the serial bus.
func WithPeripheral(cs int, p ssi.Peripheral) Option {
	return func(b *Board) {
		if cs >= 0 && cs < ssi.ChipSelects {
			b.peripherals[cs] = append(b.peripherals[cs], p)
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l log.Logger) Option {
	return func(b *Board) {
		b.log = l
	}
}

// New builds and resets a board.
func New(opts ...Option) (*Board, error) {
	b := &Board{
		Base: DefaultBase,
		CS0:  signal.NewProbe(true),
		CS1:  signal.NewProbe(true),
		IRQ:  signal.NewProbe(false),
		log:  log.Base(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.Bus = mmio.NewBus(b.log.With("component", "mmio"))
	b.SSI = ssi.NewBus(b.log.With("component", "ssi"))

	for cs, peripherals := range b.peripherals {
		for _, p := range peripherals {
			if err := b.SSI.Attach(cs, p); err != nil {
				return nil, err
			}
		}
	}

	cs0, err := b.SSI.ChipSelect(0)
	if err != nil {
		return nil, err
	}
	cs1, err := b.SSI.ChipSelect(1)
	if err != nil {
		return nil, err
	}

	peer := b.peer
	if peer == nil {
		peer = b.SSI
	}

	b.SPI = spi.New(
		spi.WithExchanger(peer),
		spi.WithChipSelectLines(signal.Fanout(cs0, b.CS0), signal.Fanout(cs1, b.CS1)),
		spi.WithInterruptLine(b.IRQ),
		spi.WithLogger(b.log.With("device", "spi")),
	)

	if err := b.Bus.Map(b.Base, b.SPI.Size(), b.SPI.AccessWidth(), b.SPI); err != nil {
		return nil, errors.Wrap(err, "map spi")
	}

	return b, nil
}

// Read performs a bus read.
func (b *Board) Read(addr uint32, width int) (uint32, error) {
	return b.Bus.Read(addr, width)
}

// Write performs a bus write.
func (b *Board) Write(addr uint32, width int, v uint32) error {
	return b.Bus.Write(addr, width, v)
}

// Reset resets the SPI controller.
func (b *Board) Reset() {
	b.SPI.Reset()
}

// Levels returns the current output levels.
func (b *Board) Levels() (cs0, cs1, irq bool) {
	return b.CS0.Level(), b.CS1.Level(), b.IRQ.Level()
}

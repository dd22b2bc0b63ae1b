// Package ssi implements the peripheral side of a synchronous serial bus:
// devices that answer byte exchanges while their chip-select is asserted.
package ssi

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"

	"github.com/sema/spictl/pkg/signal"
)

// ChipSelects is the number of chip-select lines on a bus.
const ChipSelects = 2

// idleByte is read back when no peripheral drives the line.
const idleByte byte = 0xFF

// Peripheral is a device on the bus.
type Peripheral interface {
	// Select is called when the device's chip-select is asserted (true) or
	// released (false).
	Select(selected bool)
	// Transfer exchanges one byte while the device is selected.
	Transfer(tx byte) byte
}

// Bus connects a master to peripherals grouped by chip-select index.
type Bus struct {
	mu          sync.Mutex
	peripherals [ChipSelects][]Peripheral
	selected    [ChipSelects]bool
	log         log.Logger
}

// NewBus creates a bus with nothing attached and every chip-select released.
func NewBus(l log.Logger) *Bus {
	if l == nil {
		l = log.With("component", "ssi")
	}
	return &Bus{log: l}
}

// Attach connects p to chip-select cs.
func (b *Bus) Attach(cs int, p Peripheral) error {
	if cs < 0 || cs >= ChipSelects {
		return errors.Wrapf(ErrChipSelect, "attach to %d", cs)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.peripherals[cs] = append(b.peripherals[cs], p)
	if b.selected[cs] {
		p.Select(true)
	}
	return nil
}

// ChipSelect returns the active-low line that selects the peripherals on cs.
func (b *Bus) ChipSelect(cs int) (signal.Line, error) {
	if cs < 0 || cs >= ChipSelects {
		return nil, errors.Wrapf(ErrChipSelect, "line %d", cs)
	}

	return signal.LineFunc(func(level bool) {
		b.setSelected(cs, !level)
	}), nil
}

func (b *Bus) setSelected(cs int, selected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selected[cs] == selected {
		return
	}
	b.selected[cs] = selected

	b.log.With("cs", cs).Debugf("selected=%t", selected)
	for _, p := range b.peripherals[cs] {
		p.Select(selected)
	}
}

// Exchange sends tx to every selected peripheral and returns their replies
// ORed together, or the idle byte when nothing is selected.
func (b *Bus) Exchange(tx byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	var rx byte
	driven := false
	for cs, peripherals := range b.peripherals {
		if !b.selected[cs] {
			continue
		}
		for _, p := range peripherals {
			rx |= p.Transfer(tx)
			driven = true
		}
	}

	if !driven {
		return idleByte
	}
	return rx
}

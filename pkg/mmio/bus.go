// Package mmio routes memory-mapped accesses from a simulated CPU to the
// devices mapped into its address space.
package mmio

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
)

// Device is a block of registers addressed relative to the start of its
// window.
type Device interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, v uint32)
	String() string
}

type window struct {
	base   uint32
	size   uint32
	width  int
	device Device
}

func (w window) contains(addr uint32) bool {
	return addr >= w.base && uint64(addr) < uint64(w.base)+uint64(w.size)
}

// Bus is an address space made of non-overlapping device windows. Every
// window accepts a single access width; anything else is rejected here and
// never reaches the device.
type Bus struct {
	windows []window
	log     log.Logger
}

// NewBus creates an empty address space.
func NewBus(l log.Logger) *Bus {
	if l == nil {
		l = log.With("component", "mmio")
	}
	return &Bus{log: l}
}

// Map places dev at [base, base+size) and restricts it to width-byte accesses.
func (b *Bus) Map(base, size uint32, width int, dev Device) error {
	if size == 0 {
		return errors.Wrapf(ErrEmptyWindow, "mapping %v at %#x", dev, base)
	}

	next := window{base: base, size: size, width: width, device: dev}
	end := uint64(base) + uint64(size)
	for _, w := range b.windows {
		if uint64(w.base) < end && uint64(base) < uint64(w.base)+uint64(w.size) {
			return errors.Wrapf(ErrOverlap, "%v at %#x and %v at %#x", dev, base, w.device, w.base)
		}
	}

	b.windows = append(b.windows, next)
	sort.Slice(b.windows, func(i, j int) bool {
		return b.windows[i].base < b.windows[j].base
	})

	b.log.With("base", fmt.Sprintf("%#x", base)).With("size", fmt.Sprintf("%#x", size)).Debugf("mapped %v", dev)
	return nil
}

// Read performs a width-byte read at addr.
func (b *Bus) Read(addr uint32, width int) (uint32, error) {
	w, err := b.route(addr, width)
	if err != nil {
		return 0, errors.Wrap(err, "read")
	}
	return w.device.Read32(addr - w.base), nil
}

// Write performs a width-byte write of v at addr.
func (b *Bus) Write(addr uint32, width int, v uint32) error {
	w, err := b.route(addr, width)
	if err != nil {
		return errors.Wrap(err, "write")
	}
	w.device.Write32(addr-w.base, v)
	return nil
}

func (b *Bus) route(addr uint32, width int) (window, error) {
	for _, w := range b.windows {
		if !w.contains(addr) {
			continue
		}
		if width != w.width {
			return window{}, errors.Wrapf(ErrAccessWidth, "%d byte access to %v at %#x, expected %d", width, w.device, addr, w.width)
		}
		return w, nil
	}

	return window{}, errors.Wrapf(ErrUnmapped, "%#x", addr)
}

package mmio

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
	"github.com/stretchr/testify/require"
)

type access struct {
	write  bool
	offset uint32
	value  uint32
}

type fakeDevice struct {
	name     string
	accesses []access
}

func (d *fakeDevice) Read32(offset uint32) uint32 {
	d.accesses = append(d.accesses, access{offset: offset})
	return offset | 0xA0000000
}

func (d *fakeDevice) Write32(offset uint32, v uint32) {
	d.accesses = append(d.accesses, access{write: true, offset: offset, value: v})
}

func (d *fakeDevice) String() string {
	return d.name
}

func TestBusRoutesRelativeOffsets(t *testing.T) {
	bus := NewBus(log.NewNopLogger())
	low := &fakeDevice{name: "low"}
	high := &fakeDevice{name: "high"}
	require.NoError(t, bus.Map(0x2000, 0x1000, 4, high))
	require.NoError(t, bus.Map(0x1000, 0x1000, 4, low))

	v, err := bus.Read(0x1008, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(0xA0000008), v)

	require.NoError(t, bus.Write(0x2FFC, 4, 7))

	require.Equal(t, []access{{offset: 0x8}}, low.accesses)
	require.Equal(t, []access{{write: true, offset: 0xFFC, value: 7}}, high.accesses)
}

func TestBusRejectsWrongWidthBeforeTheDevice(t *testing.T) {
	bus := NewBus(log.NewNopLogger())
	dev := &fakeDevice{name: "spi"}
	require.NoError(t, bus.Map(0x1000, 0x1000, 4, dev))

	for _, width := range []int{1, 2, 8} {
		_, err := bus.Read(0x1000, width)
		require.Equal(t, ErrAccessWidth, errors.Cause(err))

		err = bus.Write(0x1000, width, 1)
		require.Equal(t, ErrAccessWidth, errors.Cause(err))
	}

	require.Empty(t, dev.accesses)
}

func TestBusUnmappedAddress(t *testing.T) {
	bus := NewBus(log.NewNopLogger())
	require.NoError(t, bus.Map(0x1000, 0x1000, 4, &fakeDevice{name: "spi"}))

	_, err := bus.Read(0x2000, 4)
	require.Equal(t, ErrUnmapped, errors.Cause(err))

	err = bus.Write(0x0FFC, 4, 0)
	require.Equal(t, ErrUnmapped, errors.Cause(err))
}

func TestBusMapValidation(t *testing.T) {
	tests := []struct {
		name string
		base uint32
		size uint32
		want error
	}{
		{name: "overlaps start", base: 0x0800, size: 0x1000, want: ErrOverlap},
		{name: "overlaps end", base: 0x1FFC, size: 0x10, want: ErrOverlap},
		{name: "inside", base: 0x1100, size: 0x10, want: ErrOverlap},
		{name: "empty", base: 0x8000, size: 0, want: ErrEmptyWindow},
		{name: "adjacent below", base: 0x0000, size: 0x1000, want: nil},
		{name: "top of address space", base: 0xFFFFF000, size: 0x1000, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus(log.NewNopLogger())
			require.NoError(t, bus.Map(0x1000, 0x1000, 4, &fakeDevice{name: "spi"}))

			err := bus.Map(tt.base, tt.size, 4, &fakeDevice{name: "other"})
			require.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

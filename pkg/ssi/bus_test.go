package ssi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
	"github.com/stretchr/testify/require"
)

type fakePeripheral struct {
	reply    byte
	selects  []bool
	received []byte
}

func (p *fakePeripheral) Select(selected bool) {
	p.selects = append(p.selects, selected)
}

func (p *fakePeripheral) Transfer(tx byte) byte {
	p.received = append(p.received, tx)
	return p.reply
}

func TestBusOnlySelectedPeripheralsSeeBytes(t *testing.T) {
	bus := NewBus(log.NewNopLogger())
	a := &fakePeripheral{reply: 0x0A}
	b := &fakePeripheral{reply: 0xB0}
	require.NoError(t, bus.Attach(0, a))
	require.NoError(t, bus.Attach(1, b))

	cs0, err := bus.ChipSelect(0)
	require.NoError(t, err)
	cs1, err := bus.ChipSelect(1)
	require.NoError(t, err)

	require.Equal(t, byte(0xFF), bus.Exchange(0x01), "nothing selected reads idle")

	cs0.SetLevel(false)
	require.Equal(t, byte(0x0A), bus.Exchange(0x02))

	cs1.SetLevel(false)
	require.Equal(t, byte(0xBA), bus.Exchange(0x03), "replies are ORed")

	cs0.SetLevel(true)
	require.Equal(t, byte(0xB0), bus.Exchange(0x04))

	require.Equal(t, []byte{0x02, 0x03}, a.received)
	require.Equal(t, []byte{0x03, 0x04}, b.received)
}

func TestBusForwardsOnlyTransitions(t *testing.T) {
	bus := NewBus(log.NewNopLogger())
	p := &fakePeripheral{}
	require.NoError(t, bus.Attach(0, p))
	cs0, err := bus.ChipSelect(0)
	require.NoError(t, err)

	cs0.SetLevel(true)
	cs0.SetLevel(false)
	cs0.SetLevel(false)
	cs0.SetLevel(true)
	cs0.SetLevel(true)

	require.Equal(t, []bool{true, false}, p.selects)
}

func TestBusAttachWhileSelected(t *testing.T) {
	bus := NewBus(log.NewNopLogger())
	cs1, err := bus.ChipSelect(1)
	require.NoError(t, err)
	cs1.SetLevel(false)

	p := &fakePeripheral{reply: 0x11}
	require.NoError(t, bus.Attach(1, p))

	require.Equal(t, []bool{true}, p.selects)
	require.Equal(t, byte(0x11), bus.Exchange(0))
}

func TestBusRejectsUnknownChipSelect(t *testing.T) {
	bus := NewBus(log.NewNopLogger())

	err := bus.Attach(2, &fakePeripheral{})
	require.Equal(t, ErrChipSelect, errors.Cause(err))

	_, err = bus.ChipSelect(-1)
	require.Equal(t, ErrChipSelect, errors.Cause(err))
}

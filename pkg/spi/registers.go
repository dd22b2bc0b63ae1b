package spi

import "fmt"

type register uint32

const (
	// Control register 1 (read/write)
	//
	// Bit 6 - SPE, SPI enable
	// Bit 2 - MSTR, master mode
	registerCR1 register = 0x00

	// Control register 2 (read/write)
	//
	// Bit 7 - TXEIE, interrupt when the transmit buffer is empty
	// Bit 6 - RXNEIE, interrupt when the receive buffer is not empty
	// Bit 5 - ERRIE, interrupt on underrun or overrun
	registerCR2 register = 0x04

	// Status register (read, write 1 to clear UDR/OVR)
	//
	// Bit 7 - BSY, transfer in progress
	// Bit 3 - OVR, a byte was received while RXNE was still set
	// Bit 2 - UDR, underrun (never raised by this model)
	// Bit 1 - TXE, transmit buffer empty
	// Bit 0 - RXNE, receive buffer not empty
	registerSR register = 0x08

	// Data register (read/write)
	//
	// Writing the low 8 bits starts a transfer when the controller is enabled
	// in master mode with exactly one chip-select asserted. Reading returns the
	// last received byte and clears RXNE and OVR.
	registerDR register = 0x0C

	// Chip-select control (read/write)
	//
	// Bit 5 - CS1 active
	// Bit 4 - CS0 active
	// Bit 1 - CS1 enable
	// Bit 0 - CS0 enable
	registerCSCTRL register = 0x10
)

// Register offsets within the controller window.
const (
	OffsetCR1    = uint32(registerCR1)
	OffsetCR2    = uint32(registerCR2)
	OffsetSR     = uint32(registerSR)
	OffsetDR     = uint32(registerDR)
	OffsetCSCTRL = uint32(registerCSCTRL)
)

// CR1 bits
const (
	CR1SPE  uint32 = 1 << 6
	CR1MSTR uint32 = 1 << 2
)

// CR2 bits
const (
	CR2TXEIE  uint32 = 1 << 7
	CR2RXNEIE uint32 = 1 << 6
	CR2ERRIE  uint32 = 1 << 5
)

// SR bits
const (
	SRRXNE uint32 = 1 << 0
	SRTXE  uint32 = 1 << 1
	SRUDR  uint32 = 1 << 2
	SROVR  uint32 = 1 << 3
	SRBSY  uint32 = 1 << 7
)

// CSCTRL bits
const (
	CSCTRLCS0Enable uint32 = 1 << 0
	CSCTRLCS1Enable uint32 = 1 << 1
	CSCTRLCS0Active uint32 = 1 << 4
	CSCTRLCS1Active uint32 = 1 << 5
)

const (
	// WindowSize is the size of the memory-mapped register window.
	WindowSize uint32 = 0x1000

	// AccessWidth is the only access width, in bytes, the window accepts.
	AccessWidth = 4
)

var registerNames = map[register]string{
	registerCR1:    "CR1",
	registerCR2:    "CR2",
	registerSR:     "SR",
	registerDR:     "DR",
	registerCSCTRL: "CSCTRL",
}

func (r register) String() string {
	name, ok := registerNames[r]
	if !ok {
		return fmt.Sprintf("register(%#x)", uint32(r))
	}

	return name
}

func readBits(v, mask uint32) bool {
	return v&mask != 0
}

func writeBits(v, mask uint32, set bool) uint32 {
	if set {
		return v | mask
	}
	return v &^ mask
}

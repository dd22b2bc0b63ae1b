package spi

// writeData latches the low byte of v into DR and, when the controller is
// enabled in master mode with exactly one chip-select asserted, runs a
// transfer. Otherwise the status register is left untouched.
func (c *Controller) writeData(v uint32) {
	c.dr = v & 0xFF

	if !c.spe || !c.mstr || !c.selected() {
		return
	}

	c.transfer(byte(c.dr))
}

// transfer performs one byte exchange with the peer.
//
// BSY is raised and TXE dropped for the duration of the exchange. A byte
// arriving while RXNE is still set flags OVR; the new byte replaces the
// unread one.
func (c *Controller) transfer(tx byte) {
	c.sr = writeBits(c.sr, SRTXE, false)
	c.sr = writeBits(c.sr, SRBSY, true)

	rx := idleByte
	if c.exchanger != nil {
		rx = c.exchanger.Exchange(tx)
	}

	if readBits(c.sr, SRRXNE) {
		c.sr = writeBits(c.sr, SROVR, true)
	}
	c.rxData = rx

	c.sr = writeBits(c.sr, SRRXNE, true)
	c.sr = writeBits(c.sr, SRTXE, true)
	c.sr = writeBits(c.sr, SRBSY, false)

	c.updateInterrupt()
}

// readData returns the last received byte. Reading acknowledges it, clearing
// RXNE and OVR.
func (c *Controller) readData() uint32 {
	v := uint32(c.rxData)

	c.sr = writeBits(c.sr, SRRXNE, false)
	c.sr = writeBits(c.sr, SROVR, false)
	c.updateInterrupt()

	return v
}

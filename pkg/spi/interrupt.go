package spi

// interruptLevel aggregates the enabled status conditions into one level.
func interruptLevel(cr2, sr uint32) bool {
	if readBits(cr2, CR2TXEIE) && readBits(sr, SRTXE) {
		return true
	}
	if readBits(cr2, CR2RXNEIE) && readBits(sr, SRRXNE) {
		return true
	}
	if readBits(cr2, CR2ERRIE) && readBits(sr, SRUDR|SROVR) {
		return true
	}
	return false
}

// updateInterrupt drives the interrupt output. The line is level sensitive,
// so it is driven even when the level did not change.
func (c *Controller) updateInterrupt() {
	c.interrupt.SetLevel(interruptLevel(c.cr2, c.sr))
}

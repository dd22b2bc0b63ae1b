package spi

// chipSelectLevel is the active-low output level of one chip-select: low
// (false) when the line is both enabled and active, high otherwise.
func chipSelectLevel(enabled, active bool) bool {
	return !(enabled && active)
}

// updateChipSelects drives both chip-select outputs from the CSCTRL mirrors.
// Levels are recomputed from scratch on every call.
func (c *Controller) updateChipSelects() {
	c.chipSelects[0].SetLevel(chipSelectLevel(c.cs0En, c.cs0Act))
	c.chipSelects[1].SetLevel(chipSelectLevel(c.cs1En, c.cs1Act))
}

// selected reports whether exactly one chip-select is asserted.
func (c *Controller) selected() bool {
	cs0 := c.cs0En && c.cs0Act
	cs1 := c.cs1En && c.cs1Act
	return cs0 != cs1
}

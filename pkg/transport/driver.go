package transport

import (
	"github.com/prometheus/common/log"
	"tinygo.org/x/drivers"
)

// Driver exchanges through a TinyGo SPI bus, so any drivers.SPI
// implementation (a real machine.SPI or a bit-banged one) can be the peer.
type Driver struct {
	bus drivers.SPI
	log log.Logger
}

// NewDriver exchanges through bus.
func NewDriver(bus drivers.SPI, l log.Logger) *Driver {
	if l == nil {
		l = log.With("component", "driver")
	}
	return &Driver{bus: bus, log: l}
}

// Exchange transfers tx on the bus, or returns IdleByte if the bus failed.
func (d *Driver) Exchange(tx byte) byte {
	rx, err := d.bus.Transfer(tx)
	if err != nil {
		d.log.Errorf("transfer %#02x: %v", tx, err)
		return IdleByte
	}
	return rx
}

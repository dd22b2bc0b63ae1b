package spi

import (
	"errors"

	"github.com/sema/spictl/pkg/translate"
)

var f = translate.From

var (
	// Snapshot errors
	ErrSnapshotVersion = errors.New(f("snapshot version unsupported"))
	ErrSnapshotLength  = errors.New(f("snapshot length invalid"))
)

// GuestError describes a register access the guest should not have made.
// It never aborts the simulation; the access falls back to a defined value.
type GuestError struct {
	Write  bool
	Offset uint32
	Value  uint32
}

func (e GuestError) Error() string {
	if e.Write {
		return f("spi: bad write offset %#x val=%#x", e.Offset, e.Value)
	}
	return f("spi: bad read offset %#x", e.Offset)
}

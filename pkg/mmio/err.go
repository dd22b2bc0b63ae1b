package mmio

import (
	"errors"

	"github.com/sema/spictl/pkg/translate"
)

var f = translate.From

var (
	// Bus errors
	ErrUnmapped    = errors.New(f("address unmapped"))
	ErrAccessWidth = errors.New(f("access width invalid"))
	ErrOverlap     = errors.New(f("window overlaps"))
	ErrEmptyWindow = errors.New(f("window empty"))
)

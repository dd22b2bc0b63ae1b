package ssi

import (
	"errors"

	"github.com/sema/spictl/pkg/translate"
)

var f = translate.From

var (
	// Bus errors
	ErrChipSelect = errors.New(f("chip-select invalid"))

	// Flash errors
	ErrFlashSize = errors.New(f("flash size invalid"))
	ErrImageSize = errors.New(f("image larger than flash"))
)

package transport

import (
	"errors"

	"github.com/sema/spictl/pkg/translate"
)

var f = translate.From

var (
	// Exchange errors
	ErrShortExchange = errors.New(f("short exchange"))
)

package ssi

import (
	"io/ioutil"
	"math/bits"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
)

const (
	flashPageSize   = 0x100
	flashSectorSize = 0x1000

	// Winbond manufacturer and memory type for the JEDEC ID
	flashManufacturer byte = 0xEF
	flashMemoryType   byte = 0x40

	// Status register bit 1 - write enable latch
	flashStatusWEL byte = 1 << 1
)

type flashCommand byte

const (
	flashPageProgram  flashCommand = 0x02
	flashReadData     flashCommand = 0x03
	flashWriteDisable flashCommand = 0x04
	flashReadStatus   flashCommand = 0x05
	flashWriteEnable  flashCommand = 0x06
	flashSectorErase  flashCommand = 0x20
	flashChipErase    flashCommand = 0xC7
	flashChipErase2   flashCommand = 0x60
	flashReadID       flashCommand = 0x9F
)

type flashState int

const (
	flashStateCommand flashState = iota
	flashStateAddress
	flashStateRead
	flashStateProgram
	flashStateID
	flashStateStatus
	flashStateIgnore
)

// Flash is a SPI NOR flash peripheral.
//
// Every select starts a new command. Reads and page programs stream for as
// long as the chip stays selected; erases take effect when it is released.
// There is no timing model, so the busy bit never sets.
type Flash struct {
	mu   sync.Mutex
	data []byte
	id   [3]byte

	// wel is the write enable latch, required by program and erase
	wel bool

	state     flashState
	command   flashCommand
	address   uint32
	addrBytes int
	idIndex   int

	log log.Logger
}

// NewFlash creates an erased flash of size bytes. size must be a power of two
// of at least one sector.
func NewFlash(size int, l log.Logger) (*Flash, error) {
	if size < flashSectorSize || size&(size-1) != 0 || size > 1<<24 {
		return nil, errors.Wrapf(ErrFlashSize, "%d bytes", size)
	}
	if l == nil {
		l = log.With("component", "flash")
	}

	fl := &Flash{
		data: make([]byte, size),
		id:   [3]byte{flashManufacturer, flashMemoryType, byte(bits.TrailingZeros(uint(size)))},
		log:  l,
	}
	fl.erase(0, size)
	return fl, nil
}

// LoadImage copies the file at path to the start of the array. Bytes past
// the end of the image keep their current contents.
func (fl *Flash) LoadImage(path string) error {
	fl.log.Infof("loading flash image at %s", path)

	image, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "load flash image")
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if len(image) > len(fl.data) {
		return errors.Wrapf(ErrImageSize, "%s has %d bytes, flash has %d", path, len(image), len(fl.data))
	}
	copy(fl.data, image)

	fl.log.Infof("loaded %d bytes into flash", len(image))
	return nil
}

// Bytes returns a copy of the array.
func (fl *Flash) Bytes() []byte {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return append([]byte(nil), fl.data...)
}

// Select implements Peripheral.
func (fl *Flash) Select(selected bool) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if selected {
		fl.state = flashStateCommand
		fl.address = 0
		fl.addrBytes = 0
		fl.idIndex = 0
		return
	}

	switch fl.command {
	case flashSectorErase:
		if fl.wel && fl.addrBytes == 3 {
			sector := (int(fl.address) % len(fl.data)) &^ (flashSectorSize - 1)
			fl.erase(sector, sector+flashSectorSize)
		}
		fl.wel = false
	case flashChipErase, flashChipErase2:
		if fl.wel {
			fl.erase(0, len(fl.data))
		}
		fl.wel = false
	case flashPageProgram:
		fl.wel = false
	}
	fl.command = 0
	fl.state = flashStateIgnore
}

// Transfer implements Peripheral.
func (fl *Flash) Transfer(tx byte) byte {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	switch fl.state {
	case flashStateCommand:
		fl.decode(flashCommand(tx))
	case flashStateAddress:
		fl.address = fl.address<<8 | uint32(tx)
		fl.addrBytes++
		if fl.addrBytes == 3 {
			switch fl.command {
			case flashReadData:
				fl.state = flashStateRead
			case flashPageProgram:
				fl.state = flashStateProgram
			default:
				fl.state = flashStateIgnore
			}
		}
	case flashStateRead:
		v := fl.data[int(fl.address)%len(fl.data)]
		fl.address = uint32((int(fl.address) + 1) % len(fl.data))
		return v
	case flashStateProgram:
		if fl.wel {
			// NOR cells can only be programmed from 1 to 0
			fl.data[int(fl.address)%len(fl.data)] &= tx
		}
		page := fl.address &^ (flashPageSize - 1)
		fl.address = page | (fl.address+1)&(flashPageSize-1)
	case flashStateID:
		if fl.idIndex < len(fl.id) {
			v := fl.id[fl.idIndex]
			fl.idIndex++
			return v
		}
	case flashStateStatus:
		var status byte
		if fl.wel {
			status |= flashStatusWEL
		}
		return status
	}

	return idleByte
}

func (fl *Flash) decode(cmd flashCommand) {
	fl.command = cmd

	switch cmd {
	case flashReadID:
		fl.state = flashStateID
	case flashReadStatus:
		fl.state = flashStateStatus
	case flashWriteEnable:
		fl.wel = true
		fl.state = flashStateIgnore
	case flashWriteDisable:
		fl.wel = false
		fl.state = flashStateIgnore
	case flashReadData, flashPageProgram, flashSectorErase:
		fl.state = flashStateAddress
	case flashChipErase, flashChipErase2:
		fl.state = flashStateIgnore
	default:
		fl.log.Debugf("unsupported command %#02x", byte(cmd))
		fl.state = flashStateIgnore
	}
}

func (fl *Flash) erase(from, to int) {
	for i := from; i < to; i++ {
		fl.data[i] = 0xFF
	}
}

func (fl *Flash) String() string {
	return "FLASH"
}

package spi

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// StateVersion is the layout version written by State.MarshalBinary.
	StateVersion = 1

	stateLengthV1 = 1 + 5*4 + 1 + 6
)

// State is everything needed to resume a controller with identical behavior.
// There are no timers or pending operations to capture.
type State struct {
	CR1    uint32
	CR2    uint32
	SR     uint32
	DR     uint32
	CSCTRL uint32

	RxData byte

	SPE    bool
	MSTR   bool
	CS0En  bool
	CS0Act bool
	CS1En  bool
	CS1Act bool
}

// Snapshot captures the controller state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// snapshot captures the state without locking. The caller holds c.mu, which
// is the case inside an exchanger or an output line callback.
func (c *Controller) snapshot() State {
	return State{
		CR1:    c.cr1,
		CR2:    c.cr2,
		SR:     c.sr,
		DR:     c.dr,
		CSCTRL: c.csctrl,
		RxData: c.rxData,
		SPE:    c.spe,
		MSTR:   c.mstr,
		CS0En:  c.cs0En,
		CS0Act: c.cs0Act,
		CS1En:  c.cs1En,
		CS1Act: c.cs1Act,
	}
}

// Restore loads a previously captured state and re-drives every output from
// it. Values are taken as-is, including mirrors that disagree with their
// register.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cr1 = s.CR1
	c.cr2 = s.CR2
	c.sr = s.SR
	c.dr = s.DR
	c.csctrl = s.CSCTRL
	c.rxData = s.RxData
	c.spe = s.SPE
	c.mstr = s.MSTR
	c.cs0En = s.CS0En
	c.cs0Act = s.CS0Act
	c.cs1En = s.CS1En
	c.cs1Act = s.CS1Act

	c.updateChipSelects()
	c.updateInterrupt()
}

// MarshalBinary encodes the state as: version byte, CR1, CR2, SR, DR, CSCTRL
// (little-endian uint32), rx data, then the SPE, MSTR, CS0En, CS0Act, CS1En
// and CS1Act flags as one byte each.
func (s State) MarshalBinary() ([]byte, error) {
	data := make([]byte, stateLengthV1)
	data[0] = StateVersion

	for i, v := range []uint32{s.CR1, s.CR2, s.SR, s.DR, s.CSCTRL} {
		binary.LittleEndian.PutUint32(data[1+4*i:], v)
	}
	data[21] = s.RxData

	for i, flag := range []bool{s.SPE, s.MSTR, s.CS0En, s.CS0Act, s.CS1En, s.CS1Act} {
		if flag {
			data[22+i] = 1
		}
	}

	return data, nil
}

// UnmarshalBinary decodes a state written by MarshalBinary.
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return errors.Wrap(ErrSnapshotLength, "empty snapshot")
	}
	if data[0] != StateVersion {
		return errors.Wrapf(ErrSnapshotVersion, "version %d", data[0])
	}
	if len(data) != stateLengthV1 {
		return errors.Wrapf(ErrSnapshotLength, "expected %d bytes but got %d", stateLengthV1, len(data))
	}

	regs := make([]uint32, 5)
	for i := range regs {
		regs[i] = binary.LittleEndian.Uint32(data[1+4*i:])
	}

	*s = State{
		CR1:    regs[0],
		CR2:    regs[1],
		SR:     regs[2],
		DR:     regs[3],
		CSCTRL: regs[4],
		RxData: data[21],
		SPE:    data[22] != 0,
		MSTR:   data[23] != 0,
		CS0En:  data[24] != 0,
		CS0Act: data[25] != 0,
		CS1En:  data[26] != 0,
		CS1Act: data[27] != 0,
	}
	return nil
}

// Package script drives a board from a Starlark program.
//
// Scripts see read/write builtins that go through the memory-mapped bus, the
// register addresses of the SPI window and the bits of each register, so a
// register-level driver sequence reads like firmware:
//
//	write(CR1, SPE | MSTR)
//	write(CSCTRL, CS0_EN | CS0_ACT)
//	write(DR, 0x9F)
//	print("%x" % read(DR))
package script

import (
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sema/spictl/pkg/spi"
)

// Host is the machine a script runs against.
type Host interface {
	Read(addr uint32, width int) (uint32, error)
	Write(addr uint32, width int, v uint32) error
	Reset()
	Levels() (cs0, cs1, irq bool)
}

// Replier queues bytes for the serial peer to answer with.
type Replier interface {
	Push(replies ...byte)
}

// Runner executes scripts against a Host.
type Runner struct {
	Host Host

	// Base is the address of the SPI window
	Base uint32

	// Replies backs the reply() builtin; scripts calling reply() fail if nil
	Replies Replier

	// Output receives print(); defaults to os.Stdout
	Output io.Writer

	Log log.Logger
}

// RunFile executes the script at path.
func (r *Runner) RunFile(path string) error {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read script")
	}
	return r.Run(path, src)
}

// Run executes src, reporting errors against filename.
func (r *Runner) Run(filename string, src interface{}) error {
	out := r.Output
	if out == nil {
		out = os.Stdout
	}
	l := r.Log
	if l == nil {
		l = log.With("component", "script")
	}

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(out, msg)
		},
	}
	opts := &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}

	l.Debugf("running %s", filename)
	if _, err := starlark.ExecFileOptions(opts, thread, filename, src, r.predeclared()); err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			l.Debug(evalErr.Backtrace())
		}
		return errors.Wrapf(err, "script %s", filename)
	}
	return nil
}

func (r *Runner) predeclared() starlark.StringDict {
	constants := map[string]uint32{
		"SPI_BASE": r.Base,
		"CR1":      r.Base + spi.OffsetCR1,
		"CR2":      r.Base + spi.OffsetCR2,
		"SR":       r.Base + spi.OffsetSR,
		"DR":       r.Base + spi.OffsetDR,
		"CSCTRL":   r.Base + spi.OffsetCSCTRL,

		"SPE":    spi.CR1SPE,
		"MSTR":   spi.CR1MSTR,
		"TXEIE":  spi.CR2TXEIE,
		"RXNEIE": spi.CR2RXNEIE,
		"ERRIE":  spi.CR2ERRIE,
		"RXNE":   spi.SRRXNE,
		"TXE":    spi.SRTXE,
		"UDR":    spi.SRUDR,
		"OVR":    spi.SROVR,
		"BSY":    spi.SRBSY,

		"CS0_EN":  spi.CSCTRLCS0Enable,
		"CS1_EN":  spi.CSCTRLCS1Enable,
		"CS0_ACT": spi.CSCTRLCS0Active,
		"CS1_ACT": spi.CSCTRLCS1Active,
	}

	dict := starlark.StringDict{
		"read":  starlark.NewBuiltin("read", r.read),
		"write": starlark.NewBuiltin("write", r.write),
		"reset": starlark.NewBuiltin("reset", r.reset),
		"reply": starlark.NewBuiltin("reply", r.reply),
		"cs0":   starlark.NewBuiltin("cs0", r.level(0)),
		"cs1":   starlark.NewBuiltin("cs1", r.level(1)),
		"irq":   starlark.NewBuiltin("irq", r.level(2)),
	}
	for name, v := range constants {
		dict[name] = starlark.MakeUint64(uint64(v))
	}
	return dict
}

func (r *Runner) read(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr starlark.Int
	width := spi.AccessWidth
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addr, "width?", &width); err != nil {
		return nil, err
	}

	a, err := toUint32("addr", addr)
	if err != nil {
		return nil, err
	}

	v, err := r.Host.Read(a, width)
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint64(uint64(v)), nil
}

func (r *Runner) write(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr, value starlark.Int
	width := spi.AccessWidth
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addr, "value", &value, "width?", &width); err != nil {
		return nil, err
	}

	a, err := toUint32("addr", addr)
	if err != nil {
		return nil, err
	}
	v, err := toUint32("value", value)
	if err != nil {
		return nil, err
	}

	if err := r.Host.Write(a, width, v); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (r *Runner) reset(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	r.Host.Reset()
	return starlark.None, nil
}

func (r *Runner) reply(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, errors.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	if r.Replies == nil {
		return nil, errors.Errorf("%s: peer does not take scripted replies", b.Name())
	}

	replies := make([]byte, 0, len(args))
	for _, arg := range args {
		i, ok := arg.(starlark.Int)
		if !ok {
			return nil, errors.Errorf("%s: got %s, want int", b.Name(), arg.Type())
		}
		v, err := toUint32("reply", i)
		if err != nil || v > 0xFF {
			return nil, errors.Errorf("%s: %v is not a byte", b.Name(), i)
		}
		replies = append(replies, byte(v))
	}

	r.Replies.Push(replies...)
	return starlark.None, nil
}

func (r *Runner) level(line int) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
			return nil, err
		}
		cs0, cs1, irq := r.Host.Levels()
		return starlark.Bool([]bool{cs0, cs1, irq}[line]), nil
	}
}

func toUint32(name string, v starlark.Int) (uint32, error) {
	u, ok := v.Uint64()
	if !ok || u > math.MaxUint32 {
		return 0, errors.Errorf("%s %v out of range", name, v)
	}
	return uint32(u), nil
}

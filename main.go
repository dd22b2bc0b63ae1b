package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
	"github.com/prometheus/common/version"

	"github.com/sema/spictl/pkg/board"
	"github.com/sema/spictl/pkg/script"
	"github.com/sema/spictl/pkg/spi"
	"github.com/sema/spictl/pkg/ssi"
	"github.com/sema/spictl/pkg/transport"
)

type runCmd struct {
	Base string `help:"Address the SPI register window is mapped at" default:"0x10018000"`
	Peer string `help:"Serial peer: flash, echo, const, queue or serial" default:"flash"`

	FlashImage string `help:"Image loaded into the flash on CS0" type:"path"`
	FlashSize  int    `help:"Flash size in bytes" default:"1048576"`
	FlashOut   string `help:"Write the flash contents here after the script" type:"path"`

	Const string `help:"Reply byte of the const peer" default:"0xFF"`

	SerialDevice  string        `help:"Serial port of the serial peer"`
	Baud          int           `help:"Baud rate of the serial peer" default:"115200"`
	SerialTimeout time.Duration `help:"Reply timeout of the serial peer" default:"1s"`

	LoadState string `help:"Restore controller state from this file before the script" type:"path"`
	SaveState string `help:"Save controller state to this file after the script" type:"path"`

	Script string `arg:"" name:"script" help:"Starlark script driving the registers" type:"path"`
}

func (r *runCmd) Run() error {
	l := log.Base()

	base, err := parseUint(r.Base, 32)
	if err != nil {
		return errors.Wrap(err, "--base")
	}

	opts := []board.Option{board.WithBase(uint32(base)), board.WithLogger(l)}
	var replies script.Replier
	var flash *ssi.Flash

	switch r.Peer {
	case "flash":
		flash, err = ssi.NewFlash(r.FlashSize, l.With("component", "flash"))
		if err != nil {
			return err
		}
		if r.FlashImage != "" {
			if err := flash.LoadImage(r.FlashImage); err != nil {
				return err
			}
		}
		opts = append(opts, board.WithPeripheral(0, flash))
	case "echo":
		opts = append(opts, board.WithPeer(transport.Echo{}))
	case "const":
		v, err := parseUint(r.Const, 8)
		if err != nil {
			return errors.Wrap(err, "--const")
		}
		opts = append(opts, board.WithPeer(transport.Constant(v)))
	case "queue":
		q := transport.NewQueue()
		replies = q
		opts = append(opts, board.WithPeer(q))
	case "serial":
		s, err := transport.OpenSerial(transport.SerialConfig{
			Device:      r.SerialDevice,
			Baud:        r.Baud,
			ReadTimeout: r.SerialTimeout,
		}, l)
		if err != nil {
			return err
		}
		defer s.Close()
		opts = append(opts, board.WithPeer(s))
	default:
		return errors.Errorf("unknown peer %q", r.Peer)
	}

	b, err := board.New(opts...)
	if err != nil {
		return err
	}

	if r.LoadState != "" {
		if err := loadState(b.SPI, r.LoadState); err != nil {
			return err
		}
	}

	runner := &script.Runner{
		Host:    b,
		Base:    b.Base,
		Replies: replies,
		Output:  os.Stdout,
		Log:     l.With("component", "script"),
	}
	if err := runner.RunFile(r.Script); err != nil {
		return err
	}

	cs0, cs1, irq := b.Levels()
	fmt.Printf("cs0=%t cs1=%t irq=%t sr=%#02x\n", cs0, cs1, irq, b.SPI.Snapshot().SR)

	if r.SaveState != "" {
		if err := saveState(b.SPI, r.SaveState); err != nil {
			return err
		}
	}

	if flash != nil && r.FlashOut != "" {
		if err := ioutil.WriteFile(r.FlashOut, flash.Bytes(), 0644); err != nil {
			return errors.Wrap(err, "write flash contents")
		}
	}

	return nil
}

func loadState(c *spi.Controller, path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "load state")
	}

	var s spi.State
	if err := s.UnmarshalBinary(data); err != nil {
		return errors.Wrapf(err, "load state %s", path)
	}
	c.Restore(s)
	return nil
}

func saveState(c *spi.Controller, path string) error {
	data, err := c.Snapshot().MarshalBinary()
	if err != nil {
		return err
	}
	return errors.Wrap(ioutil.WriteFile(path, data, 0644), "save state")
}

func parseUint(s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bitSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid number %q", s)
	}
	return v, nil
}

type versionCmd struct{}

func (v *versionCmd) Run() error {
	fmt.Println(version.Print("spictl"))
	return nil
}

var root struct {
	LogLevel string `help:"Only log messages with the given severity or above (debug, info, warn, error)" default:"info"`

	Run     runCmd     `cmd:"" help:"run a register script against the SPI controller"`
	Version versionCmd `cmd:"" help:"print version information"`
}

func main() {
	cli := kong.Parse(&root,
		kong.Name("spictl"),
		kong.Description("Register-level SPI master controller simulator"))

	cli.FatalIfErrorf(log.Base().SetLevel(root.LogLevel))

	err := cli.Run()
	cli.FatalIfErrorf(err)
}

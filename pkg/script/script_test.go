package script

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
	"github.com/stretchr/testify/require"

	"github.com/sema/spictl/pkg/board"
	"github.com/sema/spictl/pkg/mmio"
	"github.com/sema/spictl/pkg/ssi"
	"github.com/sema/spictl/pkg/transport"
)

func newQueueRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	q := transport.NewQueue()
	b, err := board.New(board.WithPeer(q), board.WithLogger(log.NewNopLogger()))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &Runner{
		Host:    b,
		Base:    b.Base,
		Replies: q,
		Output:  out,
		Log:     log.NewNopLogger(),
	}, out
}

func TestScenarios(t *testing.T) {
	r, out := newQueueRunner(t)

	require.NoError(t, r.RunFile("testdata/scenarios.star"))
	require.Equal(t, "ok\n", out.String())
}

func TestFlashID(t *testing.T) {
	fl, err := ssi.NewFlash(1<<20, log.NewNopLogger())
	require.NoError(t, err)
	b, err := board.New(board.WithPeripheral(0, fl), board.WithLogger(log.NewNopLogger()))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := &Runner{Host: b, Base: b.Base, Output: out, Log: log.NewNopLogger()}

	require.NoError(t, r.RunFile("testdata/flash_id.star"))
	require.Equal(t, "jedec ef 40 14\n", out.String())
}

func TestScriptErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    error
		message string
	}{
		{name: "narrow access", src: "write(CR1, 0, width=2)", want: mmio.ErrAccessWidth},
		{name: "unmapped", src: "read(0)", want: mmio.ErrUnmapped},
		{name: "assertion", src: `fail("boom")`, message: "boom"},
		{name: "value out of range", src: "write(CR1, 1 << 40)", message: "value"},
		{name: "reply not a byte", src: "reply(0x100)", message: "not a byte"},
		{name: "reset takes no arguments", src: "reset(1)", message: "reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newQueueRunner(t)

			err := r.Run("inline.star", tt.src)
			require.Error(t, err)
			if tt.want != nil {
				require.True(t, errors.Is(err, tt.want), "got %v", err)
			}
			require.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestReplyWithoutQueue(t *testing.T) {
	b, err := board.New(board.WithLogger(log.NewNopLogger()))
	require.NoError(t, err)
	r := &Runner{Host: b, Base: b.Base, Output: &bytes.Buffer{}, Log: log.NewNopLogger()}

	err = r.Run("inline.star", "reply(1)")
	require.Error(t, err)
	require.Contains(t, err.Error(), "scripted replies")
}

func TestResetBuiltin(t *testing.T) {
	r, _ := newQueueRunner(t)

	src := `
write(CSCTRL, CS1_EN | CS1_ACT)
if cs1():
    fail("CS1 should be selected")
reset()
if not cs1():
    fail("CS1 should be released by reset")
`
	require.NoError(t, r.Run("inline.star", src))
}

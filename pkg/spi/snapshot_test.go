package spi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreResumesBehavior(t *testing.T) {
	a := newTestRig(0xA5)
	a.selectCS0()
	a.spi.Write32(OffsetCR2, CR2ERRIE|CR2RXNEIE)
	a.spi.Write32(OffsetDR, 0x5A)

	data, err := a.spi.Snapshot().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 28)

	var restored State
	require.NoError(t, restored.UnmarshalBinary(data))
	require.Equal(t, a.spi.Snapshot(), restored)

	b := newTestRig(0x3C)
	b.spi.Restore(restored)

	require.False(t, b.cs0.Level(), "restore re-drives CS0")
	require.True(t, b.cs1.Level())
	require.True(t, b.irq.Level(), "restore re-drives the interrupt")

	// both controllers now overrun identically on the next transfer
	a.spi.Write32(OffsetDR, 0x01)
	b.spi.Write32(OffsetDR, 0x01)
	require.Equal(t, a.spi.Read32(OffsetSR), b.spi.Read32(OffsetSR))
}

func TestStateBinaryLayout(t *testing.T) {
	s := State{
		CR1:    0x44,
		CR2:    0x40,
		SR:     SRTXE | SRRXNE,
		DR:     0x5A,
		CSCTRL: 0x11,
		RxData: 0xA5,
		SPE:    true,
		MSTR:   true,
		CS0En:  true,
		CS0Act: true,
	}

	data, err := s.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x01,
		0x44, 0, 0, 0,
		0x40, 0, 0, 0,
		0x03, 0, 0, 0,
		0x5A, 0, 0, 0,
		0x11, 0, 0, 0,
		0xA5,
		1, 1, 1, 1, 0, 0,
	}, data)
}

func TestStateUnmarshalRejectsBadInput(t *testing.T) {
	valid, err := State{}.MarshalBinary()
	require.NoError(t, err)

	future := append([]byte(nil), valid...)
	future[0] = 2

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: nil, want: ErrSnapshotLength},
		{name: "unknown version", data: future, want: ErrSnapshotVersion},
		{name: "truncated", data: valid[:20], want: ErrSnapshotLength},
		{name: "trailing bytes", data: append(append([]byte(nil), valid...), 0), want: ErrSnapshotLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s State
			err := s.UnmarshalBinary(tt.data)
			require.Error(t, err)
			require.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

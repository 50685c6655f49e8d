package imu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSource struct {
	s   Sample
	err error
}

func (s stubSource) ReadSample() (Sample, error) { return s.s, s.err }

func TestParseAxis(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Axis{"": AxisX, "x": AxisX, "Y": AxisY, " z ": AxisZ} {
		got, err := ParseAxis(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseAxis("w")
	require.Error(t, err)
}

func TestAxisReader(t *testing.T) {
	t.Parallel()

	src := stubSource{s: Sample{Source: "stub", X: -1000, Y: 12, Z: 980}}

	for a, want := range map[Axis]int32{AxisX: -1000, AxisY: 12, AxisZ: 980} {
		v, err := NewAxisReader(src, a).ReadAxis()
		require.NoError(t, err)
		require.Equal(t, want, v, a)
	}

	busErr := errors.New("spi: transfer failed")
	_, err := NewAxisReader(stubSource{err: busErr}, AxisX).ReadAxis()
	require.ErrorIs(t, err, busErr)
}

package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

func TestPinSet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		activeLow bool
		active    bool
		want      gpio.Level
	}{
		{activeLow: false, active: true, want: gpio.High},
		{activeLow: false, active: false, want: gpio.Low},
		{activeLow: true, active: true, want: gpio.Low},
		{activeLow: true, active: false, want: gpio.High},
	}

	for _, tc := range cases {
		raw := &gpiotest.Pin{N: "GPIO17", L: !tc.want}
		p := NewPin(raw, tc.activeLow)

		require.NoError(t, p.Set(tc.active))
		require.Equal(t, tc.want, raw.Read(), "activeLow=%t active=%t", tc.activeLow, tc.active)
		require.Equal(t, "GPIO17", p.String())
	}
}

type stuckPin struct {
	gpiotest.Pin
}

func (s *stuckPin) Out(gpio.Level) error { return errors.New("line busy") }

func TestPinSetError(t *testing.T) {
	t.Parallel()

	p := NewPin(&stuckPin{Pin: gpiotest.Pin{N: "GPIO22"}}, false)
	require.EqualError(t, p.Set(true), "GPIO22: line busy")
}

func TestOpenPinUnknown(t *testing.T) {
	t.Parallel()

	_, err := OpenPin("NO_SUCH_PIN_42", false)
	require.Error(t, err)
}

type recorder struct {
	writes []bool
}

func (r *recorder) Set(active bool) error {
	r.writes = append(r.writes, active)
	return nil
}

func TestLampTest(t *testing.T) {
	t.Parallel()

	inds := []*recorder{{}, {}, {}}
	err := LampTest(context.Background(), time.Millisecond, inds[0], inds[1], inds[2])
	require.NoError(t, err)

	for _, r := range inds {
		require.Equal(t, []bool{true, false}, r.writes)
	}
}

func TestLampTestCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &recorder{}
	err := LampTest(ctx, time.Hour, r)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []bool{true, false}, r.writes)
}

func TestLogged(t *testing.T) {
	t.Parallel()

	var ind tilt.Indicator = NewLogged(context.Background(), "left")
	require.NoError(t, ind.Set(true))
	require.True(t, ind.(*Logged).Active())
	require.NoError(t, ind.Set(false))
	require.False(t, ind.(*Logged).Active())
}

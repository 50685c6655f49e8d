package tilt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	leftOnly   = IndicatorState{Left: true}
	centerOnly = IndicatorState{Center: true}
	rightOnly  = IndicatorState{Right: true}
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		angle, limit int32
		want         IndicatorState
	}{
		{angle: -90, limit: 10, want: leftOnly},
		{angle: -11, limit: 10, want: leftOnly},
		{angle: -10, limit: 10, want: centerOnly},
		{angle: 0, limit: 10, want: centerOnly},
		{angle: 10, limit: 10, want: centerOnly},
		{angle: 11, limit: 10, want: rightOnly},
		{angle: 91, limit: 10, want: rightOnly},
		{angle: 0, limit: 0, want: centerOnly},
		{angle: -1, limit: 0, want: leftOnly},
		{angle: 1, limit: 0, want: rightOnly},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.angle, tc.limit), "angle=%d limit=%d", tc.angle, tc.limit)
	}
}

func TestClassifySweep(t *testing.T) {
	t.Parallel()

	for limit := int32(0); limit <= 100; limit++ {
		// Dead zone includes both of its ends.
		require.Equal(t, centerOnly, Classify(limit, limit))
		require.Equal(t, centerOnly, Classify(-limit, limit))

		for angle := int32(-200); angle <= 200; angle++ {
			got := Classify(angle, limit)

			_, ok := got.Active()
			require.True(t, ok, "angle=%d limit=%d gave %+v", angle, limit, got)

			switch {
			case angle < -limit:
				require.Equal(t, leftOnly, got, "angle=%d limit=%d", angle, limit)
			case angle > limit:
				require.Equal(t, rightOnly, got, "angle=%d limit=%d", angle, limit)
			default:
				require.Equal(t, centerOnly, got, "angle=%d limit=%d", angle, limit)
			}
		}
	}
}

func TestClassifyExtremes(t *testing.T) {
	t.Parallel()

	const maxInt32 = int32(1<<31 - 1)
	require.Equal(t, centerOnly, Classify(maxInt32, maxInt32))
	require.Equal(t, centerOnly, Classify(-maxInt32, maxInt32))
	require.Equal(t, leftOnly, Classify(-maxInt32-1, maxInt32))
}

func TestClassifyNegativeLimitPanics(t *testing.T) {
	t.Parallel()

	require.PanicsWithError(t, "dead zone must not be negative: -1", func() {
		Classify(0, -1)
	})
}

func TestIndicatorState(t *testing.T) {
	t.Parallel()

	p, ok := leftOnly.Active()
	require.True(t, ok)
	require.Equal(t, Left, p)
	require.Equal(t, "left", leftOnly.String())
	require.Equal(t, "center", centerOnly.String())
	require.Equal(t, "right", rightOnly.String())
	require.Equal(t, "cleared", Cleared.String())

	_, ok = Cleared.Active()
	require.False(t, ok)

	both := IndicatorState{Left: true, Right: true}
	_, ok = both.Active()
	require.False(t, ok)
	require.Equal(t, "invalid(true,false,true)", both.String())

	require.True(t, rightOnly.Flag(Right))
	require.False(t, rightOnly.Flag(Center))
	require.Equal(t, "position(7)", Position(7).String())
}

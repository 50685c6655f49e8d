package display

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func TestRenderFillsActiveBox(t *testing.T) {
	t.Parallel()

	cases := map[tilt.Position]tilt.IndicatorState{
		tilt.Left:   {Left: true},
		tilt.Center: {Center: true},
		tilt.Right:  {Right: true},
	}

	for active, state := range cases {
		img := Render(tilt.Reading{Raw: 0, Angle: 0, State: state})

		for i, pos := range tilt.Positions {
			box := BoxRect(i)
			require.Equal(t, image1bit.On, img.BitAt(box.Min.X, box.Min.Y), "outline of %s", pos)

			c := center(box)
			require.Equal(t, image1bit.Bit(pos == active), img.BitAt(c.X, c.Y), "fill of %s when %s active", pos, active)
		}
	}
}

func TestBoxesFitScreen(t *testing.T) {
	t.Parallel()

	screen := image.Rect(0, 0, width, height)
	for i := range tilt.Positions {
		require.True(t, BoxRect(i).In(screen), "box %d", i)
	}
	require.False(t, BoxRect(0).Overlaps(BoxRect(1)))
	require.False(t, BoxRect(1).Overlaps(BoxRect(2)))
}

type fakePanel struct {
	frames []image.Image
}

func (f *fakePanel) Bounds() image.Rectangle { return image.Rect(0, 0, width, height) }

func (f *fakePanel) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	f.frames = append(f.frames, src)
	return nil
}

func TestPanelReport(t *testing.T) {
	t.Parallel()

	dev := &fakePanel{}
	p := &Panel{dev: dev}

	require.NoError(t, p.Report(context.Background(), tilt.Reading{Raw: 1000, Angle: 90, State: tilt.IndicatorState{Right: true}}))
	require.Len(t, dev.frames, 1)

	img, ok := dev.frames[0].(*image1bit.VerticalLSB)
	require.True(t, ok)
	c := center(BoxRect(2))
	require.Equal(t, image1bit.On, img.BitAt(c.X, c.Y))
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display shows the latest tilt reading on an SSD1306 OLED.
package display

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

const (
	width  = 128
	height = 64

	boxWidth  = 34
	boxHeight = 22
	boxTop    = 38
	boxGap    = 6
)

// panel is the part of *ssd1306.Dev the reporter uses.
type panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Panel renders each reading as two text lines over three boxes, the box
// of the active indicator filled.
type Panel struct {
	dev panel
	bus i2c.BusCloser
}

// Open initializes the OLED on the named I2C bus ("" picks the first one).
// The panel answers at the fixed SSD1306 address 0x3C.
func Open(ctx context.Context, busName string) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("display: i2c open %q: %w", busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("display: init: %w", err)
	}
	logger.InfoKV(ctx, "display initialized", "bus", bus.String())

	p := &Panel{dev: dev, bus: bus}
	if err := p.splash(); err != nil {
		logger.WarnKV(ctx, "display splash failed", "error", err)
	}
	return p, nil
}

// Report draws r.
func (p *Panel) Report(_ context.Context, r tilt.Reading) error {
	return p.dev.Draw(p.dev.Bounds(), Render(r), image.Point{})
}

// Close blanks the screen and releases the bus.
func (p *Panel) Close() error {
	blank := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
	err := p.dev.Draw(p.dev.Bounds(), blank, image.Point{})
	if cerr := p.bus.Close(); err == nil {
		err = cerr
	}
	return err
}

func (p *Panel) splash() error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
	drawText(img, 26, "Tilt indicator")
	drawText(img, 39, "Waiting...")
	return p.dev.Draw(p.dev.Bounds(), img, image.Point{})
}

// Render draws a reading into a frame the size of the OLED.
func Render(r tilt.Reading) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))

	drawText(img, 13, fmt.Sprintf("raw:   %6d", r.Raw))
	drawText(img, 26, fmt.Sprintf("angle: %6d", r.Angle))

	for i, pos := range tilt.Positions {
		drawBox(img, BoxRect(i), r.State.Flag(pos))
	}
	return img
}

// BoxRect returns the area of the i-th indicator box, left to right.
func BoxRect(i int) image.Rectangle {
	x0 := boxGap + i*(boxWidth+boxGap)
	return image.Rect(x0, boxTop, x0+boxWidth, boxTop+boxHeight)
}

func drawText(img *image1bit.VerticalLSB, baseline int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, baseline),
	}
	d.DrawString(s)
}

func drawBox(img *image1bit.VerticalLSB, r image.Rectangle, filled bool) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			edge := x == r.Min.X || x == r.Max.X-1 || y == r.Min.Y || y == r.Max.Y-1
			if filled || edge {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package indicator drives the left/center/right lights.
package indicator

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

// Pin is a GPIO output that lights an LED.
type Pin struct {
	pin       gpio.PinOut
	activeLow bool
}

// NewPin wraps p. With activeLow the LED is lit by driving the line low.
func NewPin(p gpio.PinOut, activeLow bool) *Pin {
	return &Pin{pin: p, activeLow: activeLow}
}

// OpenPin looks a pin up by name, e.g. "GPIO17".
func OpenPin(name string, activeLow bool) (*Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return NewPin(p, activeLow), nil
}

// Set drives the line so that the LED is lit when active is true.
func (p *Pin) Set(active bool) error {
	level := gpio.Level(active != p.activeLow)
	if err := p.pin.Out(level); err != nil {
		return fmt.Errorf("%s: %w", p.pin.Name(), err)
	}
	return nil
}

func (p *Pin) String() string {
	return p.pin.Name()
}

// OpenPins initializes periph and opens the left, center and right pins.
func OpenPins(left, center, right string, activeLow bool) ([3]*Pin, error) {
	var pins [3]*Pin
	if _, err := host.Init(); err != nil {
		return pins, fmt.Errorf("periph host init: %w", err)
	}

	for i, name := range []string{left, center, right} {
		p, err := OpenPin(name, activeLow)
		if err != nil {
			return pins, fmt.Errorf("%s indicator: %w", tilt.Positions[i], err)
		}
		pins[i] = p
	}
	return pins, nil
}

// LampTest lights every indicator for d and then switches them all off, so
// a dead LED is visible at power-up.
func LampTest(ctx context.Context, d time.Duration, indicators ...tilt.Indicator) error {
	for _, ind := range indicators {
		if err := ind.Set(true); err != nil {
			return fmt.Errorf("lamp test: %w", err)
		}
	}
	logger.Debugf(ctx, "lamp test: %d indicators lit for %s", len(indicators), d)

	t := time.NewTimer(d)
	defer t.Stop()

	var waitErr error
	select {
	case <-ctx.Done():
		waitErr = ctx.Err()
	case <-t.C:
	}

	for _, ind := range indicators {
		if err := ind.Set(false); err != nil {
			return fmt.Errorf("lamp test: %w", err)
		}
	}
	return waitErr
}

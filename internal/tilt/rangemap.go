// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tilt

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateRange is returned (or panicked with) when an input or
	// output span has zero or negative width.
	ErrDegenerateRange = errors.New("degenerate range")
)

// RangeSpec holds the bounds used to rescale a raw axis sample into an angle.
type RangeSpec struct {
	InMin  int32 `yaml:"in_min" json:"in_min"`
	InMax  int32 `yaml:"in_max" json:"in_max"`
	OutMin int32 `yaml:"out_min" json:"out_min"`
	OutMax int32 `yaml:"out_max" json:"out_max"`
}

// DefaultRange maps a ±1000 accelerometer reading onto ±90.
var DefaultRange = RangeSpec{InMin: -1000, InMax: 1000, OutMin: -90, OutMax: 90}

// Validate checks that both spans are strictly increasing.
func (r RangeSpec) Validate() error {
	if r.InMin >= r.InMax {
		return fmt.Errorf("%w: input [%d, %d]", ErrDegenerateRange, r.InMin, r.InMax)
	}
	if r.OutMin >= r.OutMax {
		return fmt.Errorf("%w: output [%d, %d]", ErrDegenerateRange, r.OutMin, r.OutMax)
	}
	return nil
}

// MapRange linearly rescales value from [inMin, inMax] to [outMin, outMax].
//
// Division truncates toward zero and value is not clamped, so samples outside
// the input range extrapolate past the output bounds. Intermediate products are
// computed in 64 bits; the result is truncated back to int32.
//
// MapRange panics if inMin == inMax.
func MapRange(value, inMin, inMax, outMin, outMax int32) int32 {
	if inMin == inMax {
		panic(fmt.Errorf("%w: input span [%d, %d] is empty", ErrDegenerateRange, inMin, inMax))
	}

	num := (int64(value) - int64(inMin)) * (int64(outMax) - int64(outMin))
	return int32(num/(int64(inMax)-int64(inMin)) + int64(outMin))
}

// Mapper is a RangeSpec that has already been validated.
type Mapper struct {
	spec RangeSpec
}

// NewMapper validates spec and returns a Mapper for it.
func NewMapper(spec RangeSpec) (Mapper, error) {
	if err := spec.Validate(); err != nil {
		return Mapper{}, err
	}
	return Mapper{spec: spec}, nil
}

// Spec returns the bounds the mapper was built with.
func (m Mapper) Spec() RangeSpec {
	return m.spec
}

// Map converts a raw axis sample into an angle.
func (m Mapper) Map(sample int32) int32 {
	return MapRange(sample, m.spec.InMin, m.spec.InMax, m.spec.OutMin, m.spec.OutMax)
}

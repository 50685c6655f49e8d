// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"strings"
)

// Sample is one raw 3-axis accelerometer reading in sensor-native units.
type Sample struct {
	Source string `json:"source"` // driver name, e.g. "mpu9250"

	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// SampleSource is anything that can produce accelerometer samples.
type SampleSource interface {
	ReadSample() (Sample, error)
}

// Axis selects one component of a Sample.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis accepts "x", "y" or "z" in any case. The empty string means x.
func ParseAxis(s string) (Axis, error) {
	switch a := Axis(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AxisX, nil
	case AxisX, AxisY, AxisZ:
		return a, nil
	default:
		return "", fmt.Errorf("unknown axis %q (want x, y or z)", s)
	}
}

// Of returns the component of s along a.
func (a Axis) Of(s Sample) int32 {
	switch a {
	case AxisY:
		return s.Y
	case AxisZ:
		return s.Z
	default:
		return s.X
	}
}

// AxisReader narrows a 3-axis source down to a single axis.
type AxisReader struct {
	src  SampleSource
	axis Axis
}

// NewAxisReader reads axis a from src.
func NewAxisReader(src SampleSource, a Axis) *AxisReader {
	return &AxisReader{src: src, axis: a}
}

// ReadAxis reads one sample and returns the selected component.
func (r *AxisReader) ReadAxis() (int32, error) {
	s, err := r.src.ReadSample()
	if err != nil {
		return 0, err
	}
	return r.axis.Of(s), nil
}

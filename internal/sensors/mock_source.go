// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/imu"
)

type mockSource struct {
	start     time.Time
	amplitude float64
	now       func() time.Time
}

// NewMockSource creates a sensor that slowly rocks the board from one side
// to the other, sweeping every axis across ±amplitude.
func NewMockSource(amplitude int32) Source {
	return newMockSource(amplitude, time.Now)
}

func newMockSource(amplitude int32, now func() time.Time) *mockSource {
	return &mockSource{start: now(), amplitude: float64(amplitude), now: now}
}

func (m *mockSource) ReadSample() (imu.Sample, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	return imu.Sample{
		Source: config.DriverMock,
		X:      int32(m.amplitude * math.Sin(elapsed*0.5)),
		Y:      int32(m.amplitude * 0.3 * math.Cos(elapsed*0.7)),
		Z:      int32(m.amplitude * math.Cos(elapsed*0.5)),
	}, nil
}

func (m *mockSource) Close() error { return nil }

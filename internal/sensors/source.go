// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides the accelerometer collaborators the tilt loop
// samples: SPI and I2C chips driven through periph, a serial bridge and a
// mock for bench runs.
package sensors

import (
	"context"
	"fmt"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/imu"
)

// Source is an accelerometer that owns a bus handle.
type Source interface {
	imu.SampleSource
	Close() error
}

// Open initializes the driver selected in cfg. The mock sweeps the
// configured input span of the range mapping.
func Open(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.Sensor.Driver {
	case config.DriverMPU9250:
		return NewMPU9250(ctx, cfg.Sensor)
	case config.DriverLSM303:
		return NewLSM303(ctx, cfg.Sensor)
	case config.DriverSerial:
		return NewSerial(ctx, cfg.Sensor)
	case config.DriverMock:
		amplitude := max(-cfg.Range.InMin, cfg.Range.InMax)
		return NewMockSource(amplitude), nil
	default:
		return nil, fmt.Errorf("unknown sensor driver %q", cfg.Sensor.Driver)
	}
}

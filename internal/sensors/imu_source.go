// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/imu"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
)

type mpuSource struct {
	imu *mpu9250.MPU9250
}

// NewMPU9250 initializes an MPU9250 over SPI. Samples are raw counts
// (16384 per g at the ±2g range).
func NewMPU9250(ctx context.Context, cfg config.Sensor) (Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mpu9250: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("mpu9250: CS pin %q not found", cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: SPI transport (%s): %w", cfg.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("mpu9250: initialization: %w", err)
	}

	if err := dev.SetAccelRange(cfg.AccelRange); err != nil {
		return nil, fmt.Errorf("mpu9250: set accel range: %w", err)
	}
	logger.InfoKV(ctx, "mpu9250 ready",
		"spi_device", cfg.SPIDevice,
		"accel_range_g", []int{2, 4, 8, 16}[cfg.AccelRange])

	return &mpuSource{imu: dev}, nil
}

// ReadSample reads the three accelerometer axes.
func (s *mpuSource) ReadSample() (imu.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("mpu9250 accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("mpu9250 accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("mpu9250 accel Z: %w", err)
	}

	return imu.Sample{
		Source: config.DriverMPU9250,
		X:      int32(ax),
		Y:      int32(ay),
		Z:      int32(az),
	}, nil
}

func (s *mpuSource) Close() error { return nil }

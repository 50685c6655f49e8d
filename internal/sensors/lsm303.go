// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/imu"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
)

// LSM303AGR accelerometer registers.
const (
	lsmWhoAmI   = 0x0F
	lsmCtrlReg1 = 0x20
	lsmCtrlReg4 = 0x23
	lsmOutXL    = 0x28

	lsmWhoAmIValue = 0x33
	lsmAutoInc     = 0x80 // sub-address MSB enables register auto-increment
	lsmXYZEnable   = 0x07
	lsmBDU         = 0x80 // block data update
	lsmHR          = 0x08 // 12-bit high resolution, 1 mg/LSB at ±2g
)

// lsmODR maps output data rates in Hz to CTRL_REG1_A ODR codes.
var lsmODR = map[int]byte{
	1:   0x1,
	10:  0x2,
	25:  0x3,
	50:  0x4,
	100: 0x5,
	200: 0x6,
	400: 0x7,
}

type lsmSource struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// NewLSM303 initializes the accelerometer half of an LSM303AGR over I2C in
// high resolution ±2g mode, so samples are in milli-g.
func NewLSM303(ctx context.Context, cfg config.Sensor) (Source, error) {
	odr, ok := lsmODR[cfg.ODRHz]
	if !ok {
		return nil, fmt.Errorf("lsm303: unsupported output data rate %d Hz", cfg.ODRHz)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("lsm303: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("lsm303: i2c open %q: %w", cfg.I2CBus, err)
	}

	s, err := newLSMSource(bus, cfg.I2CAddr, odr)
	if err != nil {
		bus.Close()
		return nil, err
	}

	logger.InfoKV(ctx, "lsm303 ready", "bus", bus.String(), "addr", fmt.Sprintf("0x%02X", cfg.I2CAddr), "odr_hz", cfg.ODRHz)
	return s, nil
}

func newLSMSource(bus i2c.BusCloser, addr uint16, odr byte) (*lsmSource, error) {
	dev := &i2c.Dev{Bus: bus, Addr: addr}

	id := make([]byte, 1)
	if err := dev.Tx([]byte{lsmWhoAmI}, id); err != nil {
		return nil, fmt.Errorf("lsm303: read WHO_AM_I: %w", err)
	}
	if id[0] != lsmWhoAmIValue {
		return nil, fmt.Errorf("lsm303: unexpected WHO_AM_I 0x%02X (want 0x%02X)", id[0], lsmWhoAmIValue)
	}

	if err := dev.Tx([]byte{lsmCtrlReg1, odr<<4 | lsmXYZEnable}, nil); err != nil {
		return nil, fmt.Errorf("lsm303: write CTRL_REG1_A: %w", err)
	}
	if err := dev.Tx([]byte{lsmCtrlReg4, lsmBDU | lsmHR}, nil); err != nil {
		return nil, fmt.Errorf("lsm303: write CTRL_REG4_A: %w", err)
	}

	return &lsmSource{bus: bus, dev: dev}, nil
}

// ReadSample burst-reads OUT_X_L_A..OUT_Z_H_A.
func (s *lsmSource) ReadSample() (imu.Sample, error) {
	buf := make([]byte, 6)
	if err := s.dev.Tx([]byte{lsmOutXL | lsmAutoInc}, buf); err != nil {
		return imu.Sample{}, fmt.Errorf("lsm303: read accel: %w", err)
	}

	return imu.Sample{
		Source: config.DriverLSM303,
		X:      lsmAxis(buf[0], buf[1]),
		Y:      lsmAxis(buf[2], buf[3]),
		Z:      lsmAxis(buf[4], buf[5]),
	}, nil
}

// lsmAxis decodes a left-justified 12-bit two's complement value.
func lsmAxis(lo, hi byte) int32 {
	return int32(int16(uint16(hi)<<8|uint16(lo)) >> 4)
}

func (s *lsmSource) Close() error {
	return s.bus.Close()
}

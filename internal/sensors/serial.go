// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/imu"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
)

// maxSkippedLines bounds how many unusable lines one ReadSample tolerates
// before reporting the link as broken.
const maxSkippedLines = 32

var errNoSample = errors.New("line carries no accelerometer sample")

// lineSource reads samples streamed one per line by a bridge MCU, either as
// "x,y,z" or as NMEA XDR transducer sentences.
type lineSource struct {
	port   io.ReadCloser
	reader *bufio.Reader
	format string
	names  [3]string
}

// NewSerial opens the serial port of a bridge that streams accelerometer
// samples.
func NewSerial(ctx context.Context, cfg config.Sensor) (Source, error) {
	opts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              cfg.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.SerialPort, err)
	}
	logger.InfoKV(ctx, "serial sensor opened", "port", opts.PortName, "baud", opts.BaudRate, "format", cfg.SerialFormat)

	return newLineSource(port, cfg.SerialFormat, cfg.XDRNames)
}

func newLineSource(port io.ReadCloser, format string, names []string) (*lineSource, error) {
	s := &lineSource{
		port:   port,
		reader: bufio.NewReader(port),
		format: format,
	}
	if format == config.SerialNMEA {
		if len(names) != 3 {
			return nil, fmt.Errorf("serial: need 3 XDR names, got %d", len(names))
		}
		copy(s.names[:], names)
	}
	return s, nil
}

// ReadSample returns the next complete sample, skipping blank, partial or
// unrelated lines.
func (s *lineSource) ReadSample() (imu.Sample, error) {
	var lastErr error
	for i := 0; i < maxSkippedLines; i++ {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return imu.Sample{}, fmt.Errorf("serial: read: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var sample imu.Sample
		switch s.format {
		case config.SerialNMEA:
			sample, err = s.parseNMEA(line)
		default:
			sample, err = parseCSV(line)
		}
		if err != nil {
			// noisy link or partial line; try the next one
			lastErr = err
			continue
		}
		return sample, nil
	}

	if lastErr == nil {
		lastErr = errNoSample
	}
	return imu.Sample{}, fmt.Errorf("serial: no sample in %d lines: %w", maxSkippedLines, lastErr)
}

func parseCSV(line string) (imu.Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return imu.Sample{}, fmt.Errorf("csv: want 3 fields, got %d in %q", len(fields), line)
	}

	var v [3]int32
	for i, f := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return imu.Sample{}, fmt.Errorf("csv: field %d: %w", i, err)
		}
		v[i] = int32(n)
	}

	return imu.Sample{Source: config.DriverSerial, X: v[0], Y: v[1], Z: v[2]}, nil
}

func (s *lineSource) parseNMEA(line string) (imu.Sample, error) {
	if !strings.HasPrefix(line, "$") {
		return imu.Sample{}, errNoSample
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return imu.Sample{}, fmt.Errorf("nmea: %w", err)
	}

	xdr, ok := sentence.(nmea.XDR)
	if !ok {
		return imu.Sample{}, fmt.Errorf("nmea: %w (%s)", errNoSample, sentence.DataType())
	}

	return sampleFromXDR(xdr, s.names)
}

// sampleFromXDR picks the measurements named after the x, y and z axes.
// Values are rounded to the nearest integer.
func sampleFromXDR(xdr nmea.XDR, names [3]string) (imu.Sample, error) {
	var (
		v     [3]int32
		found [3]bool
	)
	for _, m := range xdr.Measurements {
		for i, name := range names {
			if m.TransducerName == name {
				v[i] = int32(math.Round(m.Value))
				found[i] = true
			}
		}
	}

	for i, ok := range found {
		if !ok {
			return imu.Sample{}, fmt.Errorf("xdr: measurement %q missing", names[i])
		}
	}

	return imu.Sample{Source: config.DriverSerial, X: v[0], Y: v[1], Z: v[2]}, nil
}

func (s *lineSource) Close() error {
	return s.port.Close()
}

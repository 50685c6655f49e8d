// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/display"
	"github.com/relabs-tech/tilt_indicator/internal/imu"
	"github.com/relabs-tech/tilt_indicator/internal/indicator"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/sensors"
	"github.com/relabs-tech/tilt_indicator/internal/telemetry"
	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

// RunIndicator samples the accelerometer and drives the three indicators
// until ctx is canceled or the failure policy stops the loop.
func RunIndicator(ctx context.Context, cfg *config.Config) error {
	ctx = logger.WithKV(logger.WithName(ctx, "indicator"), "driver", cfg.Sensor.Driver, "axis", cfg.Sensor.Axis)
	logger.InfoKV(ctx, "starting tilt indicator",
		"range", fmt.Sprintf("[%d,%d]->[%d,%d]", cfg.Range.InMin, cfg.Range.InMax, cfg.Range.OutMin, cfg.Range.OutMax),
		"dead_zone", cfg.DeadZone,
		"policy", cfg.Failure.Policy)

	axis, err := imu.ParseAxis(cfg.Sensor.Axis)
	if err != nil {
		return err
	}

	// --- sensor ---
	src, err := sensors.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer src.Close()

	// --- indicators ---
	left, center, right, err := openIndicators(ctx, cfg.Indicators)
	if err != nil {
		return err
	}

	if cfg.Indicators.LampTest > 0 {
		if err := indicator.LampTest(ctx, cfg.Indicators.LampTest, left, center, right); err != nil {
			return ignoreCanceled(err)
		}
	}

	// --- reporters ---
	var reporters []tilt.Reporter

	if cfg.MQTT.Broker != "" {
		client, err := telemetry.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return err
		}
		defer telemetry.Disconnect(client)

		reporters = append(reporters, telemetry.NewPublisher(client, cfg.MQTT.Topic))
		logger.InfoKV(ctx, "publishing readings", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
	}

	if cfg.Display.Enabled {
		panel, err := display.Open(ctx, cfg.Display.I2CBus)
		if err != nil {
			return err
		}
		defer panel.Close()

		reporters = append(reporters, panel)
	}

	loop, err := tilt.NewLoop(imu.NewAxisReader(src, axis), left, center, right, cfg.LoopConfig(), reporters...)
	if err != nil {
		return fmt.Errorf("configure loop: %w", err)
	}

	logger.Info(ctx, "entering sample loop")
	err = loop.Run(ctx)

	var serr *tilt.SensorError
	var oerr *tilt.OutputError
	switch {
	case errors.As(err, &serr):
		logger.ErrorKV(ctx, "sensor failed, indicators cleared", "error", serr.Err)
	case errors.As(err, &oerr):
		logger.ErrorKV(ctx, "indicator write failed", "indicator", oerr.Position.String(), "error", oerr.Err)
	}

	return ignoreCanceled(err)
}

func openIndicators(ctx context.Context, cfg config.Indicators) (left, center, right tilt.Indicator, err error) {
	if !cfg.HasPins() {
		logger.Warnf(ctx, "indicator pins not configured, logging state changes only")
		return indicator.NewLogged(ctx, "left"), indicator.NewLogged(ctx, "center"), indicator.NewLogged(ctx, "right"), nil
	}

	pins, err := indicator.OpenPins(cfg.LeftPin, cfg.CenterPin, cfg.RightPin, cfg.ActiveLow)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.InfoKV(ctx, "indicator pins ready",
		"left", pins[0].String(), "center", pins[1].String(), "right", pins[2].String(),
		"active_low", cfg.ActiveLow)

	return pins[0], pins[1], pins[2], nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/telemetry"
)

// RunConsole prints every reading published by the indicator until ctx is
// canceled.
func RunConsole(ctx context.Context, cfg *config.Config, out io.Writer) error {
	ctx = logger.WithName(ctx, "console")

	if cfg.MQTT.Broker == "" {
		return errNoBroker
	}

	client, err := telemetry.Connect(cfg.MQTT.Broker, cfg.MQTT.ConsoleClientID)
	if err != nil {
		return err
	}
	defer telemetry.Disconnect(client)
	logger.InfoKV(ctx, "connected", "broker", cfg.MQTT.Broker)

	err = telemetry.Subscribe(ctx, client, cfg.MQTT.Topic, func(p telemetry.Payload) {
		fmt.Fprintln(out, formatReading(p))
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info(ctx, "shutting down")
	return nil
}

// formatReading renders one line with a lamp per indicator.
func formatReading(p telemetry.Payload) string {
	lamp := func(on bool) string {
		if on {
			return "(*)"
		}
		return "( )"
	}

	return fmt.Sprintf("[TILT] raw=%6d angle=%4d  L%s C%s R%s  %s",
		p.Raw, p.Angle, lamp(p.State.Left), lamp(p.State.Center), lamp(p.State.Right), p.Active)
}

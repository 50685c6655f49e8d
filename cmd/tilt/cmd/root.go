// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/tilt_indicator/internal/app"
	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string

	rootCmd = &cobra.Command{
		Use:           "tilt",
		Short:         "Tilt indicator for a single accelerometer axis.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Sample the accelerometer and drive the left, center and right indicators.",
		Long: `Reads one accelerometer axis at a fixed interval, maps the raw reading onto
an angle and lights exactly one of three indicators: left when the angle is
below the dead zone, right when above it, center otherwise.

Readings are optionally published over MQTT and shown on an SSD1306 panel.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withConfig(app.RunIndicator)
		},
	}

	consoleCmd = &cobra.Command{
		Use:   "console",
		Short: "Print readings published by a running indicator.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConfig(func(ctx context.Context, cfg *config.Config) error {
				return app.RunConsole(ctx, cfg, cmd.OutOrStdout())
			})
		},
	}

	webCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve a live status page fed by the indicator's MQTT readings.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withConfig(app.RunWeb)
		},
	}
)

// withConfig loads the global configuration and runs fn until SIGINT or
// SIGTERM.
func withConfig(fn func(context.Context, *config.Config) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	defer logger.Sync()

	if err := config.InitGlobal(configPath); err != nil {
		logger.Errorf(ctx, "config: %v", err)
		return err
	}
	cfg := config.Get()

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}
	logger.Infof(ctx, "tilt %s, config %s", version.Full(), configPath)

	if err := fn(ctx, cfg); err != nil {
		logger.Errorf(ctx, "fatal: %v", err)
		return err
	}
	return nil
}

// Execute runs the tilt CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to configuration file")
	rootCmd.AddCommand(runCmd, consoleCmd, webCmd)
}

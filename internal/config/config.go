// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/tilt_indicator/internal/imu"
	"github.com/relabs-tech/tilt_indicator/internal/logger"
	"github.com/relabs-tech/tilt_indicator/internal/tilt"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "tilt_config.yaml"

// Sensor drivers.
const (
	DriverMPU9250 = "mpu9250"
	DriverLSM303  = "lsm303"
	DriverSerial  = "serial"
	DriverMock    = "mock"
)

// Serial framings.
const (
	SerialCSV  = "csv"
	SerialNMEA = "nmea"
)

// LSM303Rates lists the accelerometer output data rates of the LSM303AGR, in Hz.
var LSM303Rates = []int{1, 10, 25, 50, 100, 200, 400}

// Config holds all application configuration values.
type Config struct {
	Sensor     Sensor         `yaml:"sensor"`
	Range      tilt.RangeSpec `yaml:"range"`
	DeadZone   int32          `yaml:"dead_zone"`
	Indicators Indicators     `yaml:"indicators"`
	Failure    Failure        `yaml:"failure"`
	MQTT       MQTT           `yaml:"mqtt"`
	Display    Display        `yaml:"display"`
	Web        Web            `yaml:"web"`
	LogLevel   string         `yaml:"log_level"`
}

// Sensor selects and configures the accelerometer.
type Sensor struct {
	Driver string `yaml:"driver"`
	Axis   string `yaml:"axis"`

	// MPU9250 over SPI
	SPIDevice string `yaml:"spi_device"`
	CSPin     string `yaml:"cs_pin"`

	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	AccelRange byte `yaml:"accel_range"`

	// LSM303AGR over I2C
	I2CBus  string `yaml:"i2c_bus"`
	I2CAddr uint16 `yaml:"i2c_addr"`
	ODRHz   int    `yaml:"odr_hz"`

	// Serial bridge
	SerialPort   string   `yaml:"serial_port"`
	BaudRate     uint     `yaml:"baud_rate"`
	SerialFormat string   `yaml:"serial_format"`
	XDRNames     []string `yaml:"xdr_names"` // transducer names for x, y, z

	SampleInterval time.Duration `yaml:"sample_interval"`
}

// Indicators names the three output pins.
type Indicators struct {
	LeftPin   string        `yaml:"left_pin"`
	CenterPin string        `yaml:"center_pin"`
	RightPin  string        `yaml:"right_pin"`
	ActiveLow bool          `yaml:"active_low"`
	LampTest  time.Duration `yaml:"lamp_test"`
}

// Failure configures what the sample loop does when a cycle fails.
type Failure struct {
	Policy         string        `yaml:"policy"`
	MaxConsecutive int           `yaml:"max_consecutive"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// MQTT telemetry. An empty broker disables publishing.
type MQTT struct {
	Broker          string `yaml:"broker"`
	ClientID        string `yaml:"client_id"`
	ConsoleClientID string `yaml:"console_client_id"`
	WebClientID     string `yaml:"web_client_id"`
	Topic           string `yaml:"topic"`
}

// Display configures the optional SSD1306 status panel.
type Display struct {
	Enabled bool   `yaml:"enabled"`
	I2CBus  string `yaml:"i2c_bus"`
}

// Web configures the status server.
type Web struct {
	Addr string `yaml:"addr"`
}

// LoopConfig converts the loop-related settings.
func (c *Config) LoopConfig() tilt.LoopConfig {
	return tilt.LoopConfig{
		Range:          c.Range,
		DeadZone:       c.DeadZone,
		Interval:       c.Sensor.SampleInterval,
		Policy:         tilt.FailurePolicy(c.Failure.Policy),
		MaxConsecutive: c.Failure.MaxConsecutive,
		RetryDelay:     c.Failure.RetryDelay,
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the YAML file at path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(contents)
}

// Parse decodes and validates a YAML document.
func Parse(contents []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration of the reference board: x axis of a
// ±1000 reading mapped onto ±90 with a dead zone of 10, polled at 10 Hz.
func Default() *Config {
	return &Config{
		Sensor: Sensor{
			Driver:         DriverMock,
			Axis:           string(imu.AxisX),
			SPIDevice:      "/dev/spidev0.0",
			CSPin:          "8",
			I2CAddr:        0x19,
			ODRHz:          10,
			BaudRate:       115200,
			SerialFormat:   SerialCSV,
			XDRNames:       []string{"ACCX", "ACCY", "ACCZ"},
			SampleInterval: 100 * time.Millisecond,
		},
		Range:    tilt.DefaultRange,
		DeadZone: 10,
		Indicators: Indicators{
			LampTest: time.Second,
		},
		Failure: Failure{
			Policy:     string(tilt.Halt),
			RetryDelay: tilt.DefaultRetryDelay,
		},
		MQTT: MQTT{
			ClientID:        "tilt-indicator",
			ConsoleClientID: "tilt-console",
			WebClientID:     "tilt-web",
			Topic:           "tilt/reading",
		},
		Web: Web{
			Addr: ":8080",
		},
		LogLevel: "info",
	}
}

// Validate rejects settings the loop cannot run with.
func (c *Config) Validate() error {
	if err := c.Range.Validate(); err != nil {
		return fmt.Errorf("range: %w", err)
	}
	if c.DeadZone < 0 {
		return fmt.Errorf("dead_zone: %w: %d", tilt.ErrNegativeDeadZone, c.DeadZone)
	}

	if _, err := imu.ParseAxis(c.Sensor.Axis); err != nil {
		return fmt.Errorf("sensor.axis: %w", err)
	}
	if c.Sensor.SampleInterval < 0 {
		return fmt.Errorf("sensor.sample_interval must not be negative, got %s", c.Sensor.SampleInterval)
	}

	switch c.Sensor.Driver {
	case DriverMPU9250:
		if c.Sensor.SPIDevice == "" {
			return fmt.Errorf("sensor.spi_device is required for %s", c.Sensor.Driver)
		}
		if c.Sensor.AccelRange > 3 {
			return fmt.Errorf("sensor.accel_range must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", c.Sensor.AccelRange)
		}
	case DriverLSM303:
		if c.Sensor.I2CAddr == 0 {
			return fmt.Errorf("sensor.i2c_addr is required for %s", c.Sensor.Driver)
		}
		if !slices.Contains(LSM303Rates, c.Sensor.ODRHz) {
			return fmt.Errorf("sensor.odr_hz must be one of %v, got %d", LSM303Rates, c.Sensor.ODRHz)
		}
	case DriverSerial:
		if c.Sensor.SerialPort == "" {
			return fmt.Errorf("sensor.serial_port is required for %s", c.Sensor.Driver)
		}
		if c.Sensor.BaudRate == 0 {
			return fmt.Errorf("sensor.baud_rate is required for %s", c.Sensor.Driver)
		}
		switch c.Sensor.SerialFormat {
		case SerialCSV:
		case SerialNMEA:
			if len(c.Sensor.XDRNames) != 3 {
				return fmt.Errorf("sensor.xdr_names needs 3 names (x, y, z), got %d", len(c.Sensor.XDRNames))
			}
		default:
			return fmt.Errorf("sensor.serial_format must be %q or %q, got %q", SerialCSV, SerialNMEA, c.Sensor.SerialFormat)
		}
	case DriverMock:
	default:
		return fmt.Errorf("unknown sensor.driver %q", c.Sensor.Driver)
	}

	if _, err := tilt.ParseFailurePolicy(c.Failure.Policy); err != nil {
		return fmt.Errorf("failure.policy: %w", err)
	}
	if c.Failure.MaxConsecutive < 0 {
		return fmt.Errorf("failure.max_consecutive must not be negative, got %d", c.Failure.MaxConsecutive)
	}
	if c.Failure.RetryDelay < 0 {
		return fmt.Errorf("failure.retry_delay must not be negative, got %s", c.Failure.RetryDelay)
	}

	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return errors.New("mqtt.topic is required when mqtt.broker is set")
	}

	if _, ok := logger.ParseLogLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}

// HasPins reports whether all three indicator pins are configured.
func (i Indicators) HasPins() bool {
	return i.LeftPin != "" && i.CenterPin != "" && i.RightPin != ""
}

// InitGlobal loads the configuration once for the whole process.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration. InitGlobal must be called first.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

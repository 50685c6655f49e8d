// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tilt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/tilt_indicator/internal/logger"
)

// AxisReader provides one raw acceleration value along the configured axis.
type AxisReader interface {
	ReadAxis() (int32, error)
}

// Indicator is a binary output such as an LED.
type Indicator interface {
	Set(active bool) error
}

// Reading is the outcome of one successful cycle.
type Reading struct {
	Time  time.Time      `json:"time"`
	Raw   int32          `json:"raw"`
	Angle int32          `json:"angle"`
	State IndicatorState `json:"state"`
}

// Reporter observes readings after the indicators have been driven.
type Reporter interface {
	Report(ctx context.Context, r Reading) error
}

// SensorError wraps a failure of the sensor collaborator.
type SensorError struct {
	Err error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("sensor read: %v", e.Err)
}

func (e *SensorError) Unwrap() error { return e.Err }

// OutputError wraps a failed write to one indicator.
type OutputError struct {
	Position Position
	Err      error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s indicator: %v", e.Position, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// FailurePolicy decides what Run does after a failed cycle.
type FailurePolicy string

const (
	// Halt stops Run on the first failed cycle.
	Halt FailurePolicy = "halt"
	// Skip logs the failure and carries on with the next cycle.
	Skip FailurePolicy = "skip"
)

// ParseFailurePolicy validates a policy name. The empty string means Halt.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", Halt:
		return Halt, nil
	case Skip:
		return Skip, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// DefaultRetryDelay paces retries under Skip when none is configured.
const DefaultRetryDelay = 200 * time.Millisecond

// LoopConfig holds the fixed parameters of a Loop.
type LoopConfig struct {
	Range    RangeSpec
	DeadZone int32

	// Interval between the start of two cycles. Zero polls back to back.
	Interval time.Duration

	Policy FailurePolicy
	// MaxConsecutive ends a Skip run after that many failed cycles in a
	// row. Zero never gives up.
	MaxConsecutive int
	// RetryDelay is waited after a failed cycle under Skip. Zero means
	// DefaultRetryDelay.
	RetryDelay time.Duration
}

// Loop reads the sensor, classifies the tilt and drives the indicators.
// A Loop is not safe for concurrent use; it owns its collaborators.
type Loop struct {
	sensor     AxisReader
	indicators [3]Indicator
	reporters  []Reporter

	mapper   Mapper
	deadZone int32
	cfg      LoopConfig

	now func() time.Time
}

// NewLoop validates cfg and takes ownership of the collaborators.
func NewLoop(sensor AxisReader, left, center, right Indicator, cfg LoopConfig, reporters ...Reporter) (*Loop, error) {
	if sensor == nil {
		return nil, errors.New("sensor is required")
	}
	for i, ind := range []Indicator{left, center, right} {
		if ind == nil {
			return nil, fmt.Errorf("%s indicator is required", Positions[i])
		}
	}

	mapper, err := NewMapper(cfg.Range)
	if err != nil {
		return nil, err
	}
	if cfg.DeadZone < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDeadZone, cfg.DeadZone)
	}
	if cfg.Policy, err = ParseFailurePolicy(string(cfg.Policy)); err != nil {
		return nil, err
	}
	if cfg.MaxConsecutive < 0 {
		return nil, fmt.Errorf("max consecutive failures must not be negative, got %d", cfg.MaxConsecutive)
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("retry delay must not be negative, got %s", cfg.RetryDelay)
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Loop{
		sensor:     sensor,
		indicators: [3]Indicator{left, center, right},
		reporters:  reporters,
		mapper:     mapper,
		deadZone:   cfg.DeadZone,
		cfg:        cfg,
		now:        time.Now,
	}, nil
}

// Evaluate runs the pure part of a cycle on a raw sample.
func (l *Loop) Evaluate(raw int32) Reading {
	angle := l.mapper.Map(raw)
	return Reading{
		Time:  l.now(),
		Raw:   raw,
		Angle: angle,
		State: Classify(angle, l.deadZone),
	}
}

// Step performs one cycle. On a sensor or indicator failure every indicator
// is cleared before the *SensorError or *OutputError is returned, and the
// reporters are skipped.
func (l *Loop) Step(ctx context.Context) (Reading, error) {
	raw, err := l.sensor.ReadAxis()
	if err != nil {
		serr := &SensorError{Err: err}
		if cerr := l.Drive(Cleared); cerr != nil {
			return Reading{}, errors.Join(serr, cerr)
		}
		return Reading{}, serr
	}

	r := l.Evaluate(raw)
	logger.DebugKV(ctx, "cycle", "raw", r.Raw, "angle", r.Angle, "state", r.State.String())

	if err := l.Drive(r.State); err != nil {
		if cerr := l.Drive(Cleared); cerr != nil {
			return r, errors.Join(err, cerr)
		}
		return r, err
	}

	for _, rep := range l.reporters {
		if err := rep.Report(ctx, r); err != nil {
			logger.WarnKV(ctx, "reporter failed", "error", err)
		}
	}

	return r, nil
}

// Drive writes every flag of s to its indicator, left to right, whether or
// not it changed since the last cycle. A failed write does not stop the
// others; each failure is returned as an *OutputError, joined together.
func (l *Loop) Drive(s IndicatorState) error {
	var errs []error
	for _, pos := range Positions {
		if err := l.indicators[pos].Set(s.Flag(pos)); err != nil {
			errs = append(errs, &OutputError{Position: pos, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Run steps until ctx is done or the failure policy gives up. The
// indicators are cleared on the way out.
func (l *Loop) Run(ctx context.Context) error {
	var ticker *time.Ticker
	if l.cfg.Interval > 0 {
		ticker = time.NewTicker(l.cfg.Interval)
		defer ticker.Stop()
	}

	defer func() {
		if err := l.Drive(Cleared); err != nil {
			logger.ErrorKV(ctx, "clear indicators on exit", "error", err)
		}
	}()

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := l.Step(ctx)
		switch {
		case err == nil:
			failures = 0
		case l.cfg.Policy == Halt:
			return err
		default:
			failures++
			logger.ErrorKV(ctx, "cycle failed", "error", err, "consecutive", failures)
			if l.cfg.MaxConsecutive > 0 && failures >= l.cfg.MaxConsecutive {
				return fmt.Errorf("%d consecutive failed cycles: %w", failures, err)
			}
			if err := sleep(ctx, l.cfg.RetryDelay); err != nil {
				return err
			}
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

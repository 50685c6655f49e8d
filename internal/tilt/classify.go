// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tilt

import (
	"errors"
	"fmt"
)

// ErrNegativeDeadZone is returned (or panicked with) for a dead zone below zero.
var ErrNegativeDeadZone = errors.New("dead zone must not be negative")

// Position names one of the three indicators.
type Position int

const (
	Left Position = iota
	Center
	Right
)

// Positions lists the indicators in the order they are driven.
var Positions = [...]Position{Left, Center, Right}

func (p Position) String() string {
	switch p {
	case Left:
		return "left"
	case Center:
		return "center"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// IndicatorState is the activation of the three indicators for one cycle.
// States produced by Classify have exactly one flag set.
type IndicatorState struct {
	Left   bool `json:"left"`
	Center bool `json:"center"`
	Right  bool `json:"right"`
}

// Cleared has every indicator inactive. It is driven when no sample is
// trustworthy.
var Cleared = IndicatorState{}

// Flag returns the activation for p.
func (s IndicatorState) Flag(p Position) bool {
	switch p {
	case Left:
		return s.Left
	case Center:
		return s.Center
	case Right:
		return s.Right
	}
	return false
}

// Active returns the single active position. ok is false unless exactly one
// flag is set.
func (s IndicatorState) Active() (p Position, ok bool) {
	n := 0
	for _, pos := range Positions {
		if s.Flag(pos) {
			p = pos
			n++
		}
	}
	return p, n == 1
}

func (s IndicatorState) String() string {
	if p, ok := s.Active(); ok {
		return p.String()
	}
	if s == Cleared {
		return "cleared"
	}
	return fmt.Sprintf("invalid(%t,%t,%t)", s.Left, s.Center, s.Right)
}

// Classify reports which indicator represents angle given a symmetric dead
// zone of ±limit. Both ends of the dead zone count as level.
//
// Classify panics if limit is negative.
func Classify(angle, limit int32) IndicatorState {
	if limit < 0 {
		panic(fmt.Errorf("%w: %d", ErrNegativeDeadZone, limit))
	}

	switch {
	case angle < -limit:
		return IndicatorState{Left: true}
	case angle > limit:
		return IndicatorState{Right: true}
	default:
		return IndicatorState{Center: true}
	}
}

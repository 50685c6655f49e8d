// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package indicator

import (
	"context"

	"github.com/relabs-tech/tilt_indicator/internal/logger"
)

// Logged stands in for a light on boards without pins wired: it logs
// every change of state.
type Logged struct {
	ctx    context.Context
	name   string
	state  bool
	primed bool
}

// NewLogged creates a log-only indicator called name.
func NewLogged(ctx context.Context, name string) *Logged {
	return &Logged{ctx: ctx, name: name}
}

func (l *Logged) Set(active bool) error {
	if !l.primed || l.state != active {
		logger.InfoKV(l.ctx, "indicator", "name", l.name, "active", active)
	}
	l.state, l.primed = active, true
	return nil
}

// Active returns the last state written.
func (l *Logged) Active() bool {
	return l.state
}

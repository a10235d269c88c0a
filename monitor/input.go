package monitor

import (
	"context"
	"time"

	"coopdoor/clock"
	"coopdoor/door"
	"coopdoor/sensor"

	"go.uber.org/zap"
)

// Input stops the motor when the limit switch in its direction of travel
// triggers.
type Input struct {
	door     Door
	limits   sensor.Limits
	clock    clock.Clock
	interval time.Duration
	settle   time.Duration
	logger   *zap.Logger

	failing bool
}

// NewInput creates an Input monitor. settle is how long the motor keeps
// running after the bottom switch triggers, so the door seats fully.
func NewInput(d Door, limits sensor.Limits, clk clock.Clock, interval, settle time.Duration, logger *zap.Logger) *Input {
	return &Input{
		door:     d,
		limits:   limits,
		clock:    clk,
		interval: interval,
		settle:   settle,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled.
func (m *Input) Run(ctx context.Context) error {
	m.logger.Info("input monitor started", zap.Duration("interval", m.interval))
	return poll(ctx, m.clock, m.interval, m.Check)
}

// Check performs one poll.
func (m *Input) Check(ctx context.Context) {
	top, bottom, err := m.limits.Read()
	if err != nil {
		if !m.failing {
			m.logger.Error("limit switch read failed", zap.Error(err))
			m.failing = true
		}
		return
	}
	if m.failing {
		m.logger.Info("limit switch reads recovered")
		m.failing = false
	}

	switch s := m.door.Snapshot(); {
	case s.Direction == door.MovingUp && top:
		m.logger.Debug("top limit reached")
		m.stop(ctx, door.MovingUp, 0)
	case s.Direction == door.MovingDown && bottom:
		m.logger.Debug("bottom limit reached")
		m.stop(ctx, door.MovingDown, m.settle)
	}
}

func (m *Input) stop(ctx context.Context, dir door.Direction, settle time.Duration) {
	if err := m.door.StopMoving(ctx, dir, settle); err != nil && ctx.Err() == nil {
		m.logger.Warn("limit stop not applied", zap.Error(err))
	}
}

package monitor

import (
	"context"
	"time"

	"coopdoor/clock"

	"go.uber.org/zap"
)

// Watchdog halts the door when the motor has run longer than any full
// travel should take. It applies in every mode.
type Watchdog struct {
	door     Door
	clock    clock.Clock
	interval time.Duration
	maxRun   time.Duration
	logger   *zap.Logger
}

func NewWatchdog(d Door, clk clock.Clock, interval, maxRun time.Duration, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		door:     d,
		clock:    clk,
		interval: interval,
		maxRun:   maxRun,
		logger:   logger,
	}
}

// Run checks until ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) error {
	w.logger.Info("watchdog started", zap.Duration("max_run", w.maxRun))
	return poll(ctx, w.clock, w.interval, w.Check)
}

// Check performs one watchdog test.
func (w *Watchdog) Check(ctx context.Context) {
	s := w.door.Snapshot()
	if !s.Moving() {
		return
	}
	run := s.MotorRunTime(w.clock.Now())
	if run <= w.maxRun {
		return
	}

	w.logger.Error("motor runaway", zap.Stringer("direction", s.Direction), zap.Duration("run", run))
	if err := w.door.EmergencyStop(ctx, "motor ran too long"); err != nil && ctx.Err() == nil {
		w.logger.Error("emergency stop not applied", zap.Error(err))
	}
}

// Package schedule opens the door after sunrise and closes it after sunset.
package schedule

import (
	"context"
	"sync"
	"time"

	"coopdoor/clock"
	"coopdoor/door"

	"go.uber.org/zap"
)

// Door is the part of the door actor the schedule monitor uses.
type Door interface {
	Snapshot() door.State
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	BeginSecondChance(ctx context.Context) (bool, error)
	SecondChanceReopen(ctx context.Context) (bool, error)
	SecondChanceClose(ctx context.Context) error
}

// Config holds schedule settings.
type Config struct {
	SunriseDelay      time.Duration `yaml:"sunrise_delay"`
	SunsetDelay       time.Duration `yaml:"sunset_delay"`
	SecondChanceDelay time.Duration `yaml:"second_chance_delay"`
	Interval          time.Duration `yaml:"interval"`
}

// Monitor drives the door from the sun schedule while in Auto mode.
//
// After an evening close it grants one second chance per night: the door
// reopens after SecondChanceDelay for any animal left outside, then closes
// again after the same delay. The monitor issues nothing while a second
// chance is pending.
type Monitor struct {
	door   Door
	sun    Sun
	clock  clock.Clock
	cfg    Config
	logger *zap.Logger

	wg         sync.WaitGroup
	lastNight  string
	sunErrDate string
}

func NewMonitor(d Door, sun Sun, clk clock.Clock, cfg Config, logger *zap.Logger) *Monitor {
	return &Monitor{
		door:   d,
		sun:    sun,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// Run checks the schedule every interval until ctx is cancelled, then waits
// for a running second-chance sequence to give up.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("schedule monitor started",
		zap.Duration("sunrise_delay", m.cfg.SunriseDelay),
		zap.Duration("sunset_delay", m.cfg.SunsetDelay))
	defer m.wg.Wait()

	for {
		if err := m.clock.Sleep(ctx, m.cfg.Interval); err != nil {
			return nil
		}
		m.Check(ctx)
	}
}

// Check performs one schedule evaluation.
func (m *Monitor) Check(ctx context.Context) {
	s := m.door.Snapshot()
	if s.Mode != door.Auto || s.SecondChancePending {
		return
	}

	now := m.clock.Now()
	rise, set, err := m.sun.SunTimes(now)
	if err != nil {
		if day := now.Format(time.DateOnly); day != m.sunErrDate {
			m.logger.Warn("no sun schedule today", zap.String("date", day), zap.Error(err))
			m.sunErrDate = day
		}
		return
	}
	afterSunrise := rise.Add(m.cfg.SunriseDelay)
	afterSunset := set.Add(m.cfg.SunsetDelay)

	if !now.Before(afterSunrise) && !now.After(afterSunset) {
		if s.Status != door.Open && s.Direction != door.MovingUp {
			m.logger.Info("daytime, opening door", zap.Time("after_sunrise", afterSunrise))
			m.act(ctx, "open", m.door.Open)
		}
		return
	}

	if s.Status == door.Closed || s.Direction == door.MovingDown {
		return
	}
	m.logger.Info("nighttime, closing door", zap.Time("after_sunset", afterSunset))
	m.act(ctx, "close", m.door.Close)

	// A night runs from one evening to the next morning.
	night := now
	if now.Before(afterSunrise) {
		night = now.AddDate(0, 0, -1)
	}
	m.grantSecondChance(ctx, night.Format(time.DateOnly))
}

func (m *Monitor) grantSecondChance(ctx context.Context, night string) {
	if m.cfg.SecondChanceDelay <= 0 || night == m.lastNight {
		return
	}
	began, err := m.door.BeginSecondChance(ctx)
	if err != nil || !began {
		return
	}
	m.lastNight = night

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.secondChance(ctx)
	}()
}

func (m *Monitor) secondChance(ctx context.Context) {
	d := m.cfg.SecondChanceDelay
	m.logger.Info("second chance scheduled", zap.Duration("delay", d))

	if err := m.clock.Sleep(ctx, d); err != nil {
		return
	}
	if _, err := m.door.SecondChanceReopen(ctx); err != nil {
		return
	}
	if err := m.clock.Sleep(ctx, d); err != nil {
		return
	}
	m.act(ctx, "second chance close", m.door.SecondChanceClose)
}

// Wait blocks until any running second-chance sequence has finished.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) act(ctx context.Context, what string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && ctx.Err() == nil {
		m.logger.Warn("schedule action not applied", zap.String("action", what), zap.Error(err))
	}
}

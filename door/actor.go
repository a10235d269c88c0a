// Package door owns the door state and serializes every change to it.
//
// All callers (monitors, buttons, schedule, command sources) submit events
// to a single Actor goroutine, which processes them one at a time in arrival
// order. The actor is the only writer of the motor and indicator outputs.
// Readers that only need to observe the door use Snapshot, which never
// blocks behind a pending event.
package door

import (
	"context"
	"sync"
	"time"

	"coopdoor/clock"
	"coopdoor/indicator"
	"coopdoor/motor"
	"coopdoor/notify"
	"coopdoor/sensor"

	"go.uber.org/zap"
)

// Hardware groups the actuators and sensors the actor drives.
type Hardware struct {
	Motor  motor.Driver
	LED    indicator.Indicator
	Limits sensor.Limits
}

// Events receives outbound notifications. Publish must not block.
type Events interface {
	Publish(e notify.Event)
}

type discard struct{}

func (discard) Publish(notify.Event) {}

type request struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

// Actor is the door state machine.
type Actor struct {
	hw     Hardware
	clock  clock.Clock
	events Events
	logger *zap.Logger

	requests chan request
	stopped  chan struct{}

	// state is only touched by the Run goroutine.
	state State

	mu   sync.RWMutex
	snap State
}

// NewActor creates an Actor in Auto mode with unknown status. Nothing is
// processed until Run is called.
func NewActor(hw Hardware, clk clock.Clock, events Events, logger *zap.Logger) *Actor {
	if events == nil {
		events = discard{}
	}
	a := &Actor{
		hw:       hw,
		clock:    clk,
		events:   events,
		logger:   logger,
		requests: make(chan request),
		stopped:  make(chan struct{}),
		state:    State{Mode: Auto, Status: Unknown},
	}
	a.snap = a.state
	return a
}

// Run processes events until ctx is cancelled. On exit the motor is
// de-energized and the indicator turned off.
func (a *Actor) Run(ctx context.Context) error {
	defer close(a.stopped)

	a.setLED(true)
	a.recomputeStatus(false)
	a.publishSnapshot()
	a.logger.Info("door actor started",
		zap.Stringer("status", a.state.Status),
		zap.Stringer("mode", a.state.Mode))

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			a.publishSnapshot()
			return nil
		case req := <-a.requests:
			req.fn(ctx)
			a.publishSnapshot()
			close(req.done)
		}
	}
}

// Snapshot returns a copy of the state as of the last processed event.
func (a *Actor) Snapshot() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Open starts the motor upward unless the door is open, already opening,
// halted, or the top limit is triggered. A door moving down is stopped first.
func (a *Actor) Open(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) { a.move(ctx, MovingUp) })
}

// Close starts the motor downward; see Open.
func (a *Actor) Close(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) { a.move(ctx, MovingDown) })
}

// Stop waits settle, de-energizes the motor and recomputes the status. With
// the motor already idle only the status is recomputed.
func (a *Actor) Stop(ctx context.Context, settle time.Duration) error {
	return a.do(ctx, func(ctx context.Context) { a.stop(ctx, settle) })
}

// StopMoving stops only if the motor is still running in dir when the event
// is processed.
func (a *Actor) StopMoving(ctx context.Context, dir Direction, settle time.Duration) error {
	return a.do(ctx, func(ctx context.Context) {
		if a.state.Direction == dir {
			a.stop(ctx, settle)
		}
	})
}

// EmergencyStop de-energizes the motor regardless of state, enters Halt and
// raises an alert.
func (a *Actor) EmergencyStop(ctx context.Context, reason string) error {
	return a.do(ctx, func(ctx context.Context) { a.emergencyStop(ctx, reason) })
}

// SetMode switches mode. Leaving Auto stops the motor.
func (a *Actor) SetMode(ctx context.Context, m Mode) error {
	return a.do(ctx, func(ctx context.Context) { a.setMode(ctx, m) })
}

// Command applies a remote command. Motion commands switch to Manual first,
// in the same event, so no other event can run between the two steps.
func (a *Actor) Command(ctx context.Context, cmd Command) error {
	return a.do(ctx, func(ctx context.Context) { a.command(ctx, cmd) })
}

// ToggleMode switches between Auto and Manual and returns the resulting
// mode. Halt is left unchanged.
func (a *Actor) ToggleMode(ctx context.Context) (Mode, error) {
	var m Mode
	err := a.do(ctx, func(ctx context.Context) {
		switch a.state.Mode {
		case Auto:
			a.setMode(ctx, Manual)
		case Manual:
			a.setMode(ctx, Auto)
		default:
			a.logger.Info("mode toggle ignored while halted")
		}
		m = a.state.Mode
	})
	return m, err
}

// ButtonPress handles a short press of a direction button. It only acts in
// Manual: a moving door stops, an idle one moves in dir.
func (a *Actor) ButtonPress(ctx context.Context, dir Direction) error {
	return a.do(ctx, func(ctx context.Context) {
		if a.state.Mode != Manual {
			return
		}
		if a.state.Moving() {
			a.stop(ctx, 0)
			return
		}
		a.move(ctx, dir)
	})
}

// ManualTick runs one blink cycle of manual mode. It returns false when the
// door is not in Manual, including when this tick timed manual mode out
// after ceiling. A zero ceiling never times out.
func (a *Actor) ManualTick(ctx context.Context, ceiling time.Duration) (bool, error) {
	var manual bool
	err := a.do(ctx, func(ctx context.Context) { manual = a.manualTick(ctx, ceiling) })
	return manual, err
}

// BeginSecondChance marks a second chance as pending. It returns false if
// one already is.
func (a *Actor) BeginSecondChance(ctx context.Context) (bool, error) {
	var began bool
	err := a.do(ctx, func(context.Context) {
		if !a.state.SecondChancePending {
			a.state.SecondChancePending = true
			began = true
		}
	})
	return began, err
}

// SecondChanceReopen opens the door if a second chance is pending, the door
// is in Auto and its status is Closed or Unknown. It reports whether an open
// was attempted.
func (a *Actor) SecondChanceReopen(ctx context.Context) (bool, error) {
	var reopened bool
	err := a.do(ctx, func(ctx context.Context) {
		s := &a.state
		if !s.SecondChancePending || s.Mode != Auto {
			return
		}
		if s.Status != Closed && s.Status != Unknown {
			return
		}
		a.logger.Info("second chance: reopening door")
		a.move(ctx, MovingUp)
		reopened = true
	})
	return reopened, err
}

// SecondChanceClose ends the pending second chance, closing the door again
// if it is still in Auto.
func (a *Actor) SecondChanceClose(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) {
		if !a.state.SecondChancePending {
			return
		}
		a.state.SecondChancePending = false
		if a.state.Mode == Auto {
			a.logger.Info("second chance: closing door")
			a.move(ctx, MovingDown)
		}
	})
}

// do submits fn to the event loop and waits for it to be processed.
func (a *Actor) do(ctx context.Context, fn func(ctx context.Context)) error {
	req := request{fn: fn, done: make(chan struct{})}

	select {
	case a.requests <- req:
	case <-a.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Actor) publishSnapshot() {
	a.mu.Lock()
	a.snap = a.state
	a.mu.Unlock()
}

func (a *Actor) move(ctx context.Context, dir Direction) {
	s := &a.state

	target, opposite, drive := Open, MovingDown, a.hw.Motor.Up
	if dir == MovingDown {
		target, opposite, drive = Closed, MovingUp, a.hw.Motor.Down
	}

	if s.Mode == Halt {
		a.logger.Debug("motion refused while halted", zap.Stringer("direction", dir))
		return
	}
	if s.Direction == dir {
		return
	}
	// Status is stale while the motor runs; stopping recomputes it.
	if s.Direction == opposite {
		a.stop(ctx, 0)
	}
	if s.Status == target {
		return
	}

	top, bottom, err := a.hw.Limits.Read()
	if err != nil {
		a.logger.Warn("motion refused: limit switch read failed",
			zap.Stringer("direction", dir), zap.Error(err))
		return
	}
	if (dir == MovingUp && top) || (dir == MovingDown && bottom) {
		a.logger.Debug("limit already triggered", zap.Stringer("direction", dir))
		a.recomputeStatus(false)
		return
	}

	if err := drive(); err != nil {
		a.logger.Error("motor start failed", zap.Stringer("direction", dir), zap.Error(err))
		a.deenergize()
		return
	}
	s.Direction = dir
	s.MotorStartedAt = a.clock.Now()
	a.logger.Info("motor started", zap.Stringer("direction", dir))
}

func (a *Actor) stop(ctx context.Context, settle time.Duration) {
	moved := a.state.Moving()
	if moved {
		if settle > 0 {
			// Cancellation only shortens the settle; the motor still stops.
			_ = a.clock.Sleep(ctx, settle)
		}
		a.deenergize()
		a.finishRun()
	}
	a.recomputeStatus(moved)
}

func (a *Actor) deenergize() {
	if err := a.hw.Motor.Stop(); err != nil {
		a.logger.Error("motor stop failed", zap.Error(err))
		a.emit(notify.KindAlert, "motor stop failed", err.Error(), nil)
	}
}

func (a *Actor) finishRun() {
	s := &a.state
	run := s.MotorRunTime(a.clock.Now())
	dir := s.Direction

	s.Direction = Idle
	s.MotorStartedAt = time.Time{}

	a.logger.Info("motor stopped", zap.Stringer("direction", dir), zap.Duration("run", run))
	a.emit(notify.KindMotor, "motor stopped", dir.String(),
		map[string]float64{"motor_run_seconds": run.Seconds()})
}

// recomputeStatus reads the limit switches and updates the status. An
// ambiguous reading is logged when it is new or follows a motor run.
func (a *Actor) recomputeStatus(afterRun bool) {
	top, bottom, err := a.hw.Limits.Read()
	status := Unknown
	if err == nil {
		status = StatusFromLimits(top, bottom)
	}

	changed := status != a.state.Status
	if status == Unknown && (changed || afterRun) {
		if err != nil {
			a.logger.Warn("door status unknown: limit switch read failed", zap.Error(err))
		} else {
			a.logger.Warn("door status unknown: limit switches ambiguous",
				zap.Bool("top", top), zap.Bool("bottom", bottom))
		}
	}
	if !changed {
		return
	}

	prev := a.state.Status
	a.state.Status = status
	a.logger.Info("door status changed", zap.Stringer("from", prev), zap.Stringer("to", status))
	a.emit(notify.KindStatus, "door "+status.String(), "",
		map[string]float64{"door_status": float64(status)})
}

func (a *Actor) emergencyStop(ctx context.Context, reason string) {
	a.deenergize()
	a.setMode(ctx, Halt)
	a.stop(ctx, 0)

	a.logger.Error("emergency stop", zap.String("reason", reason))
	a.emit(notify.KindAlert, "emergency stop", reason, nil)
}

func (a *Actor) setMode(ctx context.Context, m Mode) {
	s := &a.state
	if s.Mode == m {
		return
	}
	prev := s.Mode
	s.Mode = m
	if m != Auto {
		a.stop(ctx, 0)
	}

	switch m {
	case Auto:
		s.ManualStartedAt = time.Time{}
		a.setLED(true)
	case Manual:
		s.ManualStartedAt = a.clock.Now()
		a.setLED(false)
	case Halt:
		s.ManualStartedAt = time.Time{}
		a.setLED(false)
	}

	a.logger.Info("mode changed", zap.Stringer("from", prev), zap.Stringer("to", m))
	a.emit(notify.KindMode, "mode "+m.String(), "",
		map[string]float64{"door_mode": float64(m)})
}

func (a *Actor) command(ctx context.Context, cmd Command) {
	a.logger.Info("command received", zap.Stringer("command", cmd))

	switch cmd {
	case CmdStop:
		a.setMode(ctx, Manual)
		a.stop(ctx, 0)
	case CmdOpen:
		a.setMode(ctx, Manual)
		a.move(ctx, MovingUp)
	case CmdClose:
		a.setMode(ctx, Manual)
		a.move(ctx, MovingDown)
	case CmdManual:
		a.setMode(ctx, Manual)
	case CmdAuto:
		a.setMode(ctx, Auto)
	case CmdHalt:
		a.setMode(ctx, Halt)
	default:
		a.logger.Warn("invalid command", zap.Int("command", int(cmd)))
	}
}

func (a *Actor) manualTick(ctx context.Context, ceiling time.Duration) bool {
	s := &a.state
	if s.Mode != Manual {
		return false
	}
	if ceiling > 0 && a.clock.Now().Sub(s.ManualStartedAt) > ceiling {
		a.logger.Info("manual mode timed out", zap.Duration("after", ceiling))
		a.setMode(ctx, Auto)
		return false
	}
	a.setLED(!s.LEDOn)
	return true
}

func (a *Actor) shutdown() {
	a.deenergize()
	if a.state.Moving() {
		a.finishRun()
	}
	a.setLED(false)
	a.logger.Info("door actor stopped")
}

func (a *Actor) setLED(on bool) {
	if on {
		a.hw.LED.On()
	} else {
		a.hw.LED.Off()
	}
	a.state.LEDOn = on
}

func (a *Actor) emit(kind notify.Kind, subject, body string, metrics map[string]float64) {
	a.events.Publish(notify.Event{
		Kind:      kind,
		Time:      a.clock.Now(),
		Subject:   subject,
		Body:      body,
		Status:    a.state.Status.String(),
		Mode:      a.state.Mode.String(),
		Direction: a.state.Direction.String(),
		Metrics:   metrics,
	})
}

// Package doortest provides fake door hardware and a running Actor for tests.
package doortest

import (
	"context"
	"sync"
	"testing"
	"time"

	"coopdoor/clock"
	"coopdoor/door"
	"coopdoor/notify"

	"go.uber.org/zap/zaptest"
)

// Epoch is the default start time of the fake clock.
var Epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Motor records every output write.
type Motor struct {
	mu      sync.Mutex
	writes  []string
	stopErr error
}

func (m *Motor) record(w string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, w)
}

func (m *Motor) Up() error   { m.record("up"); return nil }
func (m *Motor) Down() error { m.record("down"); return nil }

func (m *Motor) Stop() error {
	m.record("stop")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopErr
}

func (m *Motor) Release() error { return nil }

// FailStop makes subsequent Stop calls return err.
func (m *Motor) FailStop(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopErr = err
}

// Writes returns the writes so far.
func (m *Motor) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// Reset forgets recorded writes.
func (m *Motor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}

// Limits is a settable pair of limit switches.
type Limits struct {
	mu          sync.Mutex
	top, bottom bool
	err         error
}

// Set sets the switch levels and clears any read error.
func (l *Limits) Set(top, bottom bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.top, l.bottom, l.err = top, bottom, nil
}

// Fail makes subsequent reads return err.
func (l *Limits) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *Limits) Read() (bool, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, false, l.err
	}
	return l.top, l.bottom, nil
}

// LED records the indicator level.
type LED struct {
	mu      sync.Mutex
	on      bool
	changes int
}

func (l *LED) set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on != on {
		l.changes++
	}
	l.on = on
}

func (l *LED) On()            { l.set(true) }
func (l *LED) Off()           { l.set(false) }
func (l *LED) Release() error { return nil }

// IsOn reports the current level.
func (l *LED) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Changes returns the number of level changes.
func (l *LED) Changes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.changes
}

// Events collects published notifications.
type Events struct {
	mu     sync.Mutex
	events []notify.Event
}

func (e *Events) Publish(ev notify.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

// OfKind returns the events of kind k in publish order.
func (e *Events) OfKind(k notify.Kind) []notify.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []notify.Event
	for _, ev := range e.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

// Harness is a running Actor wired to fakes.
type Harness struct {
	Actor  *door.Actor
	Motor  *Motor
	Limits *Limits
	LED    *LED
	Events *Events
	Clock  *clock.Fake
}

// Start runs an Actor with the given boot limit levels on a fake clock set
// to Epoch. The actor is stopped when the test ends.
func Start(t testing.TB, top, bottom bool) *Harness {
	return StartAt(t, clock.NewFake(Epoch), top, bottom)
}

// StartAt is Start with a caller-supplied clock.
func StartAt(t testing.TB, clk *clock.Fake, top, bottom bool) *Harness {
	t.Helper()

	h := &Harness{
		Motor:  &Motor{},
		Limits: &Limits{},
		LED:    &LED{},
		Events: &Events{},
		Clock:  clk,
	}
	h.Limits.Set(top, bottom)
	h.Actor = door.NewActor(door.Hardware{
		Motor:  h.Motor,
		LED:    h.LED,
		Limits: h.Limits,
	}, clk, h.Events, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Actor.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait for boot so the first snapshot reflects the limits.
	if err := h.Actor.SetMode(context.Background(), door.Auto); err != nil {
		t.Fatalf("actor did not start: %v", err)
	}
	return h
}

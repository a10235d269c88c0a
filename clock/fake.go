package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fake is a manually driven Clock for tests.
//
// Time only moves through Advance or Sleep. Sleep advances the fake time by
// the requested duration and returns immediately, so a sequence of sleeps
// in one goroutine produces exact, repeatable timestamps. Timers due during
// an advance fire in their own goroutines, like time.AfterFunc.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	due   time.Time
	f     func()
	done  bool
}

// NewFake returns a Fake set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now implements Clock.Now.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep implements Clock.Sleep by advancing the fake time.
func (c *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

// AfterFunc implements Clock.AfterFunc.
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, due: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the fake time forward by d and fires every timer that
// became due.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	if d > 0 {
		c.now = c.now.Add(d)
	}

	var due, pending []*fakeTimer
	for _, t := range c.timers {
		if t.done {
			continue
		}
		if !t.due.After(c.now) {
			t.done = true
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
	for _, t := range due {
		go t.f()
	}
}

// Set jumps the fake time to t without firing timers that are not yet due.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	delta := t.Sub(c.now)
	c.mu.Unlock()
	c.Advance(delta)
}

// PendingTimers returns the number of timers that have not fired or been stopped.
func (c *Fake) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Stop implements Timer.Stop.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

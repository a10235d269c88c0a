package clock

import (
	"context"
	"testing"
	"time"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestFake_SleepAdvances(t *testing.T) {
	c := NewFake(epoch)

	if err := c.Sleep(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if got := c.Now().Sub(epoch); got != 3*time.Second {
		t.Errorf("elapsed = %v, want 3s", got)
	}
}

func TestFake_SleepCancelled(t *testing.T) {
	c := NewFake(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Sleep(ctx, time.Second); err == nil {
		t.Error("Sleep() with cancelled context should return an error")
	}
	if !c.Now().Equal(epoch) {
		t.Error("cancelled Sleep() should not advance time")
	}
}

func TestFake_AfterFuncFiresWhenDue(t *testing.T) {
	c := NewFake(epoch)
	fired := make(chan struct{}, 1)
	c.AfterFunc(2*time.Second, func() { fired <- struct{}{} })

	c.Advance(time.Second)
	select {
	case <-fired:
		t.Fatal("timer fired early")
	case <-time.After(20 * time.Millisecond):
	}

	c.Advance(time.Second)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire when due")
	}

	if n := c.PendingTimers(); n != 0 {
		t.Errorf("PendingTimers() = %d, want 0", n)
	}
}

func TestFake_StopPreventsFire(t *testing.T) {
	c := NewFake(epoch)
	fired := make(chan struct{}, 1)
	timer := c.AfterFunc(time.Second, func() { fired <- struct{}{} })

	if !timer.Stop() {
		t.Fatal("Stop() = false on pending timer, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}

	c.Advance(2 * time.Second)
	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestReal_SleepZero(t *testing.T) {
	if err := (Real{}).Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) error = %v", err)
	}
}

// Package monitor polls the limit switches and guards against motor runaway.
// Monitors never change door state directly; they submit events to the
// door actor.
package monitor

import (
	"context"
	"time"

	"coopdoor/clock"
	"coopdoor/door"
)

// Door is the part of the door actor the monitors use.
type Door interface {
	Snapshot() door.State
	StopMoving(ctx context.Context, dir door.Direction, settle time.Duration) error
	EmergencyStop(ctx context.Context, reason string) error
}

// poll calls check every interval until ctx is cancelled.
func poll(ctx context.Context, clk clock.Clock, interval time.Duration, check func(context.Context)) error {
	for {
		if err := clk.Sleep(ctx, interval); err != nil {
			return nil
		}
		check(ctx)
	}
}

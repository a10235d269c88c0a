// Package mode turns button presses into door events and runs the manual
// mode blink and timeout.
//
// Holding a button for LongPress toggles Auto and Manual. A shorter press in
// Manual moves or stops the door.
package mode

import (
	"context"
	"sync"
	"time"

	"coopdoor/clock"
	"coopdoor/door"
	"coopdoor/sensor"

	"go.uber.org/zap"
)

// LongPress is how long a button must be held to toggle mode.
const LongPress = 2000 * time.Millisecond

// Door is the part of the door actor the controller uses.
type Door interface {
	ToggleMode(ctx context.Context) (door.Mode, error)
	ButtonPress(ctx context.Context, dir door.Direction) error
	ManualTick(ctx context.Context, ceiling time.Duration) (bool, error)
}

type press struct {
	timer clock.Timer
}

// Controller handles button events and the manual mode tick.
type Controller struct {
	door    Door
	clock   clock.Clock
	tick    time.Duration
	ceiling time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	presses map[sensor.Button]*press
}

// NewController creates a Controller. Manual mode blinks every tick and
// reverts to Auto after ceiling.
func NewController(d Door, clk clock.Clock, tick, ceiling time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		door:    d,
		clock:   clk,
		tick:    tick,
		ceiling: ceiling,
		logger:  logger,
		ctx:     context.Background(),
		presses: make(map[sensor.Button]*press),
	}
}

// OnButton is the sensor button handler. Repeated presses of a button that
// is already held are ignored.
func (c *Controller) OnButton(b sensor.Button, pressed bool) {
	c.mu.Lock()
	p := c.presses[b]

	if pressed {
		if p == nil {
			c.presses[b] = &press{
				timer: c.clock.AfterFunc(LongPress, func() { c.longPress(b) }),
			}
		}
		c.mu.Unlock()
		return
	}

	if p == nil {
		c.mu.Unlock()
		return
	}
	delete(c.presses, b)
	ctx := c.ctx
	c.mu.Unlock()

	// A timer that already fired was a long press.
	if !p.timer.Stop() {
		return
	}

	dir := door.MovingUp
	if b == sensor.ButtonDown {
		dir = door.MovingDown
	}
	c.logger.Debug("short press", zap.Stringer("button", b))
	if err := c.door.ButtonPress(ctx, dir); err != nil && ctx.Err() == nil {
		c.logger.Warn("button press not applied", zap.Stringer("button", b), zap.Error(err))
	}
}

func (c *Controller) longPress(b sensor.Button) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	m, err := c.door.ToggleMode(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("mode toggle not applied", zap.Error(err))
		}
		return
	}
	c.logger.Info("long press", zap.Stringer("button", b), zap.Stringer("mode", m))
}

// Run drives the manual mode tick until ctx is cancelled. Button events
// arriving while Run is active are bound to ctx.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	defer c.cancelPresses()

	for {
		if err := c.clock.Sleep(ctx, c.tick); err != nil {
			return nil
		}
		if _, err := c.door.ManualTick(ctx, c.ceiling); err != nil && ctx.Err() == nil {
			c.logger.Warn("manual tick not applied", zap.Error(err))
		}
	}
}

func (c *Controller) cancelPresses() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for b, p := range c.presses {
		p.timer.Stop()
		delete(c.presses, b)
	}
}

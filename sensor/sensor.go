// Package sensor reads the door's limit switches and control buttons.
//
// Limit switches are polled (Limits.Read); buttons are edge driven and
// delivered through Handlers.OnButton from the GPIO event goroutine or
// the evdev reader loop.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Button identifies one of the two control buttons.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
)

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// Limits reads the two limit switches. Safe for concurrent use.
type Limits interface {
	// Read returns true for each switch that is currently triggered.
	Read() (top, bottom bool, err error)
}

// Handlers holds callback functions for button events.
type Handlers struct {
	OnButton func(b Button, pressed bool) // pressed on rising edge, released on falling
}

// Config holds configuration for the sensor inputs.
type Config struct {
	Type string `yaml:"type"` // "gpiocdev", "none"
	Chip string `yaml:"chip"`

	TopPin    *int `yaml:"top_pin"`
	BottomPin *int `yaml:"bottom_pin"`

	UpButtonPin    *int          `yaml:"up_button_pin"`
	DownButtonPin  *int          `yaml:"down_button_pin"`
	ButtonDebounce time.Duration `yaml:"button_debounce"`

	// Buttons exposed as keys by the gpio-keys overlay instead of GPIO lines.
	ButtonDevice string `yaml:"button_device"` // e.g. /dev/input/event0
	UpKey        int    `yaml:"up_key"`
	DownKey      int    `yaml:"down_key"`
}

// ErrNoLimits is returned when the limit switch pins are missing from the config.
var ErrNoLimits = errors.New("sensor: limit switch pins not configured")

// Inputs bundles the limit switches with whichever button source is configured.
type Inputs struct {
	Limits
	keys    *Keys
	release []func() error
}

// New creates the configured inputs. Button callbacks start immediately for
// GPIO buttons; evdev buttons start when Watch is called.
func New(cfg Config, handlers Handlers, logger *zap.Logger) (*Inputs, error) {
	if cfg.Type == "none" {
		return &Inputs{Limits: Noop{}}, nil
	}
	if cfg.TopPin == nil || cfg.BottomPin == nil {
		return nil, ErrNoLimits
	}
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	if cfg.ButtonDebounce == 0 {
		cfg.ButtonDebounce = 200 * time.Millisecond
	}

	limits, err := NewLimitLines(cfg.Chip, *cfg.TopPin, *cfg.BottomPin)
	if err != nil {
		return nil, err
	}
	in := &Inputs{Limits: limits}
	in.release = append(in.release, limits.Close)

	if cfg.ButtonDevice != "" {
		keys, err := NewKeys(cfg.ButtonDevice, cfg.UpKey, cfg.DownKey, handlers.OnButton, logger)
		if err != nil {
			in.Release()
			return nil, err
		}
		in.keys = keys
		in.release = append(in.release, keys.Close)
		return in, nil
	}

	for b, pin := range map[Button]*int{ButtonUp: cfg.UpButtonPin, ButtonDown: cfg.DownButtonPin} {
		if pin == nil {
			continue
		}
		btn, err := NewButtonLine(cfg.Chip, *pin, b, cfg.ButtonDebounce, handlers.OnButton)
		if err != nil {
			in.Release()
			return nil, err
		}
		in.release = append(in.release, btn.Close)
	}

	return in, nil
}

// Watch runs the evdev button reader until ctx is done. It returns
// immediately when buttons are GPIO lines or not configured.
func (in *Inputs) Watch(ctx context.Context) error {
	if in.keys == nil {
		return nil
	}
	return in.keys.Run(ctx)
}

// Release releases all input lines and devices.
func (in *Inputs) Release() error {
	var lastErr error
	for _, fn := range in.release {
		if err := fn(); err != nil {
			lastErr = err
		}
	}
	in.release = nil
	return lastErr
}

// Noop implements Limits with both switches untriggered.
// Used for bench runs without hardware.
type Noop struct{}

// Read implements Limits.Read.
func (Noop) Read() (bool, bool, error) {
	return false, false, nil
}

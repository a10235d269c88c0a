package indicator

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Indicator is the interface for the door status light implementations
// (discrete LED, neopixel strip, etc).
//
// Steady on means automatic mode; the door actor blinks it in manual mode
// and turns it off when halted.
type Indicator interface {
	// On lights the indicator.
	On()

	// Off darkens the indicator.
	Off()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	// Status LED (nil = not configured)
	Type string `yaml:"type"` // "gpiocdev", "bcm"
	Chip string `yaml:"chip"`
	Pin  *int   `yaml:"pin"`

	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`
}

// New creates an Indicator based on the provided configuration.
// Returns a Multi indicator if both an LED and a Neopixel are configured.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	if cfg.Pin != nil {
		led, err := newLED(cfg)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, led)
	}

	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	if len(indicators) == 0 {
		return Noop{}, nil
	}
	if len(indicators) == 1 {
		return indicators[0], nil
	}
	return Multi(indicators), nil
}

func newLED(cfg Config) (Indicator, error) {
	switch cfg.Type {
	case "bcm":
		hw, err := govattu.Open()
		if err != nil {
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		return NewGPIO(hw, uint8(*cfg.Pin)), nil
	case "gpiocdev", "":
		chip := cfg.Chip
		if chip == "" {
			chip = "gpiochip0"
		}
		return NewLine(chip, *cfg.Pin)
	default:
		return nil, fmt.Errorf("unknown indicator type %q", cfg.Type)
	}
}

package motor

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Driver is the interface for all motor driver implementations.
//
// The driver only writes outputs. Sequencing (never reversing without
// passing through Stop) is the caller's responsibility.
type Driver interface {
	// Up energizes the motor in the opening direction.
	Up() error

	// Down energizes the motor in the closing direction.
	Down() error

	// Stop de-energizes the motor.
	Stop() error

	// Release de-energizes the motor and releases any hardware resources.
	Release() error
}

// Config holds configuration for motor driver implementations.
type Config struct {
	Type      string `yaml:"type"`       // "gpiocdev", "bcm", "none"
	Chip      string `yaml:"chip"`       // gpiocdev chip, default gpiochip0
	EnablePin *int   `yaml:"enable_pin"` // motor enable (BCM numbering)
	UpPin     *int   `yaml:"up_pin"`     // direction line, high to open
	DownPin   *int   `yaml:"down_pin"`   // direction line, high to close
}

// New creates a Driver based on the provided configuration.
func New(cfg Config) (Driver, error) {
	if cfg.EnablePin == nil || cfg.UpPin == nil || cfg.DownPin == nil {
		return &Noop{}, nil
	}

	switch cfg.Type {
	case "bcm":
		hw, err := govattu.Open()
		if err != nil {
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		return NewBCM(hw, uint8(*cfg.EnablePin), uint8(*cfg.UpPin), uint8(*cfg.DownPin))
	case "gpiocdev", "":
		chip := cfg.Chip
		if chip == "" {
			chip = "gpiochip0"
		}
		return NewLines(chip, *cfg.EnablePin, *cfg.UpPin, *cfg.DownPin)
	case "none":
		return &Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown motor type %q", cfg.Type)
	}
}

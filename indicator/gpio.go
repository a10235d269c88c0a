package indicator

import (
	"github.com/hjkoskel/govattu"
)

// GPIO implements Indicator using a discrete LED on a BCM register-mapped pin.
type GPIO struct {
	hw  govattu.Vattu
	pin uint8
}

// NewGPIO creates a new GPIO-based indicator, starting off.
func NewGPIO(hw govattu.Vattu, pin uint8) *GPIO {
	hw.PinMode(pin, govattu.ALToutput)
	hw.PinClear(pin)

	return &GPIO{
		hw:  hw,
		pin: pin,
	}
}

// On implements Indicator.On.
func (g *GPIO) On() {
	g.hw.PinSet(g.pin)
}

// Off implements Indicator.Off.
func (g *GPIO) Off() {
	g.hw.PinClear(g.pin)
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.Off()
	return g.hw.Close()
}

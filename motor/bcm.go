package motor

import (
	"github.com/hjkoskel/govattu"
)

// BCM implements Driver with memory-mapped BCM283x GPIO register access.
type BCM struct {
	hw      govattu.Vattu
	enable  uint8
	upPin   uint8
	downPin uint8
}

// NewBCM creates a new register-level motor driver. The motor starts stopped.
func NewBCM(hw govattu.Vattu, enable, upPin, downPin uint8) (*BCM, error) {
	for _, pin := range []uint8{enable, upPin, downPin} {
		hw.PinMode(pin, govattu.ALToutput)
	}

	b := &BCM{
		hw:      hw,
		enable:  enable,
		upPin:   upPin,
		downPin: downPin,
	}

	b.Stop()
	return b, nil
}

// Up implements Driver.Up.
func (b *BCM) Up() error {
	b.hw.PinClear(b.downPin)
	b.hw.PinSet(b.upPin)
	b.hw.PinSet(b.enable)
	return nil
}

// Down implements Driver.Down.
func (b *BCM) Down() error {
	b.hw.PinClear(b.upPin)
	b.hw.PinSet(b.downPin)
	b.hw.PinSet(b.enable)
	return nil
}

// Stop implements Driver.Stop. Enable drops first so the bridge never sees
// both direction lines change while powered.
func (b *BCM) Stop() error {
	b.hw.PinClear(b.enable)
	b.hw.PinClear(b.upPin)
	b.hw.PinClear(b.downPin)
	return nil
}

// Release implements Driver.Release.
func (b *BCM) Release() error {
	b.Stop()
	return b.hw.Close()
}

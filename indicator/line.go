//go:build linux

package indicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Line implements Indicator using a GPIO character device output line.
type Line struct {
	line *gpiocdev.Line
}

// NewLine requests pin as an output, starting off.
func NewLine(chip string, pin int) (*Line, error) {
	l, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.WithConsumer("coopdoor-led"),
		gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request led line %d: %w", pin, err)
	}
	return &Line{line: l}, nil
}

// On implements Indicator.On.
func (l *Line) On() {
	l.line.SetValue(1)
}

// Off implements Indicator.Off.
func (l *Line) Off() {
	l.line.SetValue(0)
}

// Release implements Indicator.Release.
func (l *Line) Release() error {
	l.Off()
	return l.line.Close()
}

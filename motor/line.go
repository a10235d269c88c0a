//go:build linux

package motor

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Lines implements Driver with GPIO character device output lines.
type Lines struct {
	lines *gpiocdev.Lines
}

// NewLines requests the enable, up and down lines as outputs, all low.
func NewLines(chip string, enable, upPin, downPin int) (*Lines, error) {
	l, err := gpiocdev.RequestLines(chip, []int{enable, upPin, downPin},
		gpiocdev.WithConsumer("coopdoor-motor"),
		gpiocdev.AsOutput(0, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("request motor lines: %w", err)
	}
	return &Lines{lines: l}, nil
}

// Up implements Driver.Up.
func (m *Lines) Up() error {
	return m.set(1, 1, 0)
}

// Down implements Driver.Down.
func (m *Lines) Down() error {
	return m.set(1, 0, 1)
}

// Stop implements Driver.Stop.
func (m *Lines) Stop() error {
	return m.set(0, 0, 0)
}

// Release implements Driver.Release.
func (m *Lines) Release() error {
	stopErr := m.Stop()
	if err := m.lines.Close(); err != nil {
		return err
	}
	return stopErr
}

func (m *Lines) set(enable, up, down int) error {
	if err := m.lines.SetValues([]int{enable, up, down}); err != nil {
		return fmt.Errorf("set motor lines: %w", err)
	}
	return nil
}

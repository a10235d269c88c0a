//go:build !linux

package sensor

import (
	"errors"
	"time"
)

var ErrNotSupported = errors.New("gpio character device not supported on this platform")

// LimitLines is a stub for non-linux platforms.
type LimitLines struct{}

// NewLimitLines returns an error on non-linux platforms.
func NewLimitLines(chip string, top, bottom int) (*LimitLines, error) {
	return nil, ErrNotSupported
}

func (l *LimitLines) Read() (bool, bool, error) { return false, false, ErrNotSupported }
func (l *LimitLines) Close() error              { return nil }

// ButtonLine is a stub for non-linux platforms.
type ButtonLine struct{}

// NewButtonLine returns an error on non-linux platforms.
func NewButtonLine(chip string, pin int, b Button, debounce time.Duration, onButton func(Button, bool)) (*ButtonLine, error) {
	return nil, ErrNotSupported
}

func (bl *ButtonLine) Close() error { return nil }

//go:build !linux

package indicator

import "errors"

var ErrNotSupported = errors.New("gpio character device not supported on this platform")

// Line is a stub for non-linux platforms.
type Line struct{}

// NewLine returns an error on non-linux platforms.
func NewLine(chip string, pin int) (*Line, error) {
	return nil, ErrNotSupported
}

func (l *Line) On()            {}
func (l *Line) Off()           {}
func (l *Line) Release() error { return nil }

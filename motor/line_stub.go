//go:build !linux

package motor

import "errors"

var ErrNotSupported = errors.New("gpio character device not supported on this platform")

// Lines is a stub for non-linux platforms.
type Lines struct{}

// NewLines returns an error on non-linux platforms.
func NewLines(chip string, enable, upPin, downPin int) (*Lines, error) {
	return nil, ErrNotSupported
}

func (m *Lines) Up() error      { return ErrNotSupported }
func (m *Lines) Down() error    { return ErrNotSupported }
func (m *Lines) Stop() error    { return ErrNotSupported }
func (m *Lines) Release() error { return nil }

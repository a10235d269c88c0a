package indicator

import "errors"

// Multi drives several indicators as one light.
type Multi []Indicator

// On implements Indicator.On.
func (m Multi) On() {
	for _, ind := range m {
		ind.On()
	}
}

// Off implements Indicator.Off.
func (m Multi) Off() {
	for _, ind := range m {
		ind.Off()
	}
}

// Release implements Indicator.Release. Every member is released even if
// an earlier one fails.
func (m Multi) Release() error {
	var errs []error
	for _, ind := range m {
		errs = append(errs, ind.Release())
	}
	return errors.Join(errs...)
}

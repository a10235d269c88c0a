package indicator

// Noop is the indicator used when no status light is wired.
type Noop struct{}

func (Noop) On()            {}
func (Noop) Off()           {}
func (Noop) Release() error { return nil }

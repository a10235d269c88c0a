package motor

// Noop implements Driver but does nothing.
// Used when no motor pins are configured.
type Noop struct{}

// Up implements Driver.Up.
func (n *Noop) Up() error {
	return nil
}

// Down implements Driver.Down.
func (n *Noop) Down() error {
	return nil
}

// Stop implements Driver.Stop.
func (n *Noop) Stop() error {
	return nil
}

// Release implements Driver.Release.
func (n *Noop) Release() error {
	return nil
}

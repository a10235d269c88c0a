package indicator

import (
	"fmt"
	"os"
	"sync"
)

// Pixel 0 frames understood by the external neopixel daemon.
const (
	neoLit  = "@0 004000\n"
	neoDark = "@0 000000\n"
)

// Neopixel lights the first pixel of a strip owned by an external daemon
// that reads frames from a named pipe.
type Neopixel struct {
	mu   sync.Mutex
	pipe *os.File
	lit  bool
}

// NewNeopixel opens the daemon's pipe. The pipe is opened read-write so
// the open does not block while the daemon is restarting.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return &Neopixel{pipe: f}, nil
}

// On implements Indicator.On.
func (n *Neopixel) On() { n.set(true) }

// Off implements Indicator.Off.
func (n *Neopixel) Off() { n.set(false) }

// Release implements Indicator.Release. The pixel is left dark.
func (n *Neopixel) Release() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pipe == nil {
		return nil
	}
	n.pipe.WriteString(neoDark)
	err := n.pipe.Close()
	n.pipe = nil
	return err
}

// set skips repeated frames; the blink loop toggles every tick.
func (n *Neopixel) set(lit bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pipe == nil || n.lit == lit {
		return
	}
	frame := neoDark
	if lit {
		frame = neoLit
	}
	if _, err := n.pipe.WriteString(frame); err == nil {
		n.lit = lit
	}
}

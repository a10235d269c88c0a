//go:build linux

package sensor

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// LimitLines implements Limits with two pulled-down GPIO input lines.
// A switch pulls its line high when triggered.
type LimitLines struct {
	lines *gpiocdev.Lines
}

// NewLimitLines requests the top and bottom limit lines.
func NewLimitLines(chip string, top, bottom int) (*LimitLines, error) {
	l, err := gpiocdev.RequestLines(chip, []int{top, bottom},
		gpiocdev.WithConsumer("coopdoor-limits"),
		gpiocdev.AsInput,
		gpiocdev.WithPullDown)
	if err != nil {
		return nil, fmt.Errorf("request limit lines: %w", err)
	}
	return &LimitLines{lines: l}, nil
}

// Read implements Limits.Read.
func (l *LimitLines) Read() (bool, bool, error) {
	vals := make([]int, 2)
	if err := l.lines.Values(vals); err != nil {
		return false, false, fmt.Errorf("read limit lines: %w", err)
	}
	return vals[0] == 1, vals[1] == 1, nil
}

// Close releases the lines.
func (l *LimitLines) Close() error {
	return l.lines.Close()
}

// ButtonLine watches one pulled-down push button for both edges.
type ButtonLine struct {
	line     *gpiocdev.Line
	button   Button
	onButton func(Button, bool)
}

// NewButtonLine requests pin with edge detection and debounce.
func NewButtonLine(chip string, pin int, b Button, debounce time.Duration, onButton func(Button, bool)) (*ButtonLine, error) {
	bl := &ButtonLine{button: b, onButton: onButton}

	var err error
	bl.line, err = gpiocdev.RequestLine(chip, pin,
		gpiocdev.WithConsumer("coopdoor-"+b.String()),
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(bl.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("request %s button line %d: %w", b, pin, err)
	}
	return bl, nil
}

func (bl *ButtonLine) handleEvent(evt gpiocdev.LineEvent) {
	if bl.onButton == nil {
		return
	}
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		bl.onButton(bl.button, true)
	case gpiocdev.LineEventFallingEdge:
		bl.onButton(bl.button, false)
	}
}

// Close releases the line.
func (bl *ButtonLine) Close() error {
	return bl.line.Close()
}

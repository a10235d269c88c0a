package sensor

import (
	"context"
	"fmt"

	"github.com/kenshaw/evdev"
	"go.uber.org/zap"
)

// Keys reads the buttons from an input event device, for boards where the
// buttons are bound to the gpio-keys driver instead of raw GPIO lines.
type Keys struct {
	device   *evdev.Evdev
	keys     map[uint16]Button
	onButton func(Button, bool)
	logger   *zap.Logger
}

// NewKeys opens device and maps the two key codes to the up and down buttons.
func NewKeys(device string, upKey, downKey int, onButton func(Button, bool), logger *zap.Logger) (*Keys, error) {
	if upKey == 0 || downKey == 0 {
		return nil, fmt.Errorf("button device %s: up_key and down_key are required", device)
	}

	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}

	logger.Info("opened button device", zap.String("device", device), zap.String("name", dev.Name()))

	return &Keys{
		device: dev,
		keys: map[uint16]Button{
			uint16(upKey):   ButtonUp,
			uint16(downKey): ButtonDown,
		},
		onButton: onButton,
		logger:   logger,
	}, nil
}

// Run delivers key presses and releases until ctx is done.
// Autorepeat events are ignored; a held key is one press.
func (k *Keys) Run(ctx context.Context) error {
	k.serve(ctx, k.device.Poll(ctx))
	return nil
}

// serve reads events until ctx is done or ch is closed. A lost device only
// disables the buttons; the door keeps running on schedule and remote commands.
func (k *Keys) serve(ctx context.Context, ch <-chan *evdev.EventEnvelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok || event == nil {
				// Poll closes ch on cancellation too.
				if ctx.Err() == nil {
					k.logger.Error("button device closed, buttons disabled")
				}
				return
			}

			k.dispatch(event)
		}
	}
}

func (k *Keys) dispatch(event *evdev.EventEnvelope) {
	if _, ok := event.Type.(evdev.KeyType); !ok {
		return
	}
	b, ok := k.keys[event.Code]
	if !ok || k.onButton == nil {
		return
	}
	switch event.Value {
	case 1:
		k.onButton(b, true)
	case 0:
		k.onButton(b, false)
	}
}

// Close releases the device.
func (k *Keys) Close() error {
	if k.device == nil {
		return nil
	}
	return k.device.Close()
}

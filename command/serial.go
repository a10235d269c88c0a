package command

import (
	"context"
	"fmt"

	"github.com/tarm/serial"
	"go.uber.org/zap"
)

// SerialConfig selects a serial line carrying commands.
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Serial reads commands from a serial line, e.g. a radio modem in the house.
type Serial struct {
	port     *serial.Port
	device   string
	dispatch *Dispatcher
	logger   *zap.Logger
}

// NewSerial opens the serial device. Baud defaults to 9600.
func NewSerial(cfg SerialConfig, d *Dispatcher, logger *zap.Logger) (*Serial, error) {
	baud := cfg.Baud
	if baud == 0 {
		baud = 9600
	}
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	return &Serial{port: port, device: cfg.Device, dispatch: d, logger: logger}, nil
}

// Run reads commands until ctx is cancelled or the port fails. A failed
// port only silences this source; it never stops the controller.
func (s *Serial) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.port.Close() })
	defer stop()

	s.logger.Info("command serial listening", zap.String("device", s.device))
	s.dispatch.serveSource(ctx, s.port, "serial")
	return nil
}

// Close closes the port.
func (s *Serial) Close() error {
	return s.port.Close()
}

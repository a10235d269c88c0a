//go:build !unix

package command

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Pipe is unavailable on this platform.
type Pipe struct{}

func NewPipe(path string, d *Dispatcher, logger *zap.Logger) (*Pipe, error) {
	return nil, errors.New("named pipes not supported on this platform")
}

func (p *Pipe) Run(ctx context.Context) error { return nil }
func (p *Pipe) Close() error                  { return nil }

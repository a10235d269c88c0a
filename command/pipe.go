//go:build unix

package command

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Pipe reads commands from a named pipe, so local scripts can
// `echo open > /run/coopdoor.cmd`.
type Pipe struct {
	path     string
	dispatch *Dispatcher
	logger   *zap.Logger
}

// NewPipe creates the named pipe at path, replacing any existing file.
func NewPipe(path string, d *Dispatcher, logger *zap.Logger) (*Pipe, error) {
	os.Remove(path)
	if err := unix.Mkfifo(path, 0o620); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", path, err)
	}
	return &Pipe{path: path, dispatch: d, logger: logger}, nil
}

// Run reads commands until ctx is cancelled. The pipe is held open for
// writing as well, so it never reports EOF between writers.
func (p *Pipe) Run(ctx context.Context) error {
	f, err := os.OpenFile(p.path, os.O_RDWR, 0)
	if err != nil {
		p.logger.Error("command pipe unavailable", zap.String("path", p.path), zap.Error(err))
		return nil
	}
	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()
	defer f.Close()

	p.logger.Info("command pipe listening", zap.String("path", p.path))
	p.dispatch.serveSource(ctx, f, "pipe")
	return nil
}

// Close removes the named pipe.
func (p *Pipe) Close() error {
	return os.Remove(p.path)
}

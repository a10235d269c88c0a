// Package command receives remote operator commands.
//
// The protocol is one command per line: stop, open, close, manual, auto or
// halt. Lines are trimmed and matched case-sensitively; anything else is
// dropped. Nothing is ever sent back. The same protocol is accepted over
// TCP, a named pipe, a serial line and MQTT.
package command

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"coopdoor/door"

	"go.uber.org/zap"
)

// Door is the part of the door actor that executes commands.
type Door interface {
	Command(ctx context.Context, cmd door.Command) error
}

// Parse maps a command line to a door command.
func Parse(line string) (door.Command, bool) {
	switch strings.TrimSpace(line) {
	case "stop":
		return door.CmdStop, true
	case "open":
		return door.CmdOpen, true
	case "close":
		return door.CmdClose, true
	case "manual":
		return door.CmdManual, true
	case "auto":
		return door.CmdAuto, true
	case "halt":
		return door.CmdHalt, true
	default:
		return 0, false
	}
}

// Dispatcher parses lines from any source and forwards them to the door.
type Dispatcher struct {
	door   Door
	logger *zap.Logger
}

func NewDispatcher(d Door, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{door: d, logger: logger}
}

// Handle executes line if it is a command. It blocks until the door has
// processed it.
func (d *Dispatcher) Handle(ctx context.Context, source, line string) {
	cmd, ok := Parse(line)
	if !ok {
		d.logger.Debug("unknown command dropped",
			zap.String("source", source), zap.String("line", line))
		return
	}

	d.logger.Info("command", zap.String("source", source), zap.Stringer("command", cmd))
	if err := d.door.Command(ctx, cmd); err != nil && ctx.Err() == nil {
		d.logger.Warn("command not applied",
			zap.String("source", source), zap.Stringer("command", cmd), zap.Error(err))
	}
}

// MaxLineLength bounds a command line. Longer lines are dropped without
// closing the source.
const MaxLineLength = 4096

// serveLines dispatches every line read from r until EOF or a read error.
func (d *Dispatcher) serveLines(ctx context.Context, r io.Reader, source string) error {
	br := bufio.NewReaderSize(r, MaxLineLength)
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			d.logger.Debug("overlong line dropped", zap.String("source", source))
			err = skipLine(br)
		} else if len(line) > 0 {
			d.Handle(ctx, source, string(line))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// skipLine discards input up to and including the next newline.
func skipLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// serveSource runs serveLines for a long-lived source. A failed source is
// logged and abandoned; it never takes the door down with it.
func (d *Dispatcher) serveSource(ctx context.Context, r io.Reader, source string) {
	if err := d.serveLines(ctx, r, source); err != nil && ctx.Err() == nil {
		d.logger.Error("command source failed, source disabled",
			zap.String("source", source), zap.Error(err))
	}
}

package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Server accepts command connections over TCP. At most maxConns clients are
// served at once; further clients wait in the listen queue.
type Server struct {
	addr     string
	dispatch *Dispatcher
	sem      *semaphore.Weighted
	logger   *zap.Logger

	ln net.Listener
	wg sync.WaitGroup
}

func NewServer(addr string, maxConns int, d *Dispatcher, logger *zap.Logger) *Server {
	if maxConns < 1 {
		maxConns = 1
	}
	return &Server{
		addr:     addr,
		dispatch: d,
		sem:      semaphore.NewWeighted(int64(maxConns)),
		logger:   logger,
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run serves connections until ctx is cancelled, then closes the listener
// and every open connection.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()

	s.logger.Info("command server listening", zap.Stringer("addr", s.ln.Addr()))

	for {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}
		conn, err := s.ln.Accept()
		if err != nil {
			s.sem.Release(1)
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sem.Release(1)
			s.serve(ctx, conn)
		}()
	}

	s.wg.Wait()
	s.logger.Info("command server stopped")
	return nil
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	s.logger.Debug("client connected", zap.String("remote", remote))
	if err := s.dispatch.serveLines(ctx, conn, remote); err != nil && ctx.Err() == nil {
		s.logger.Debug("client read failed", zap.String("remote", remote), zap.Error(err))
	}
	s.logger.Debug("client disconnected", zap.String("remote", remote))
}

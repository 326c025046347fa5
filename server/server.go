// File: server/server.go
// Package server implements the reactor-backed TCP echo service:
// event loop, accept path, per-connection echo machine, and the
// interrupt-driven graceful stop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/momentics/hioload-echo/pool"
	"github.com/momentics/hioload-echo/reactor"
)

// New builds the Server facade: loop, buffer pool, bound listener, and
// (unless disabled) the interrupt subscription. Any failure here is a
// fatal startup condition; nothing is left registered on error.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		cfg: DefaultConfig(),
		log: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	loop, err := reactor.New()
	if err != nil {
		return nil, fmt.Errorf("reactor: %w", err)
	}
	s.loop = loop
	s.pool = pool.NewBytePool(s.cfg.ReadBufSize)

	listener, err := newListener(s, s.cfg.Port)
	if err != nil {
		loop.Close()
		return nil, fmt.Errorf("listener: %w", err)
	}
	s.listener = listener

	if s.cfg.HandleSignal {
		if _, err := registerInterrupt(loop, s.log, s.cfg.GracePeriod); err != nil {
			listener.Close()
			loop.Close()
			return nil, fmt.Errorf("signal registration: %w", err)
		}
	}
	return s, nil
}

// Port reports the bound listening port.
func (s *Server) Port() int {
	return s.listener.Port()
}

// Run announces the listening port and blocks dispatching events until
// the loop stops. A loop stopped by an accept-path failure reports
// that failure.
func (s *Server) Run() error {
	s.log.Info("start listening", "port", s.listener.Port())
	if err := s.loop.Run(); err != nil {
		return err
	}
	return s.acceptErr
}

// StopAfter arms loop termination after d. Safe from any goroutine.
func (s *Server) StopAfter(d time.Duration) {
	s.loop.StopAfter(d)
}

// Close releases the listener and then the loop, reverse order of
// creation. Only legal after Run has returned.
func (s *Server) Close() error {
	err := s.listener.Close()
	if cerr := s.loop.Close(); err == nil {
		err = cerr
	}
	s.log.Debug("resources released")
	return err
}

// File: server/options.go
// Package server defines functional options for the echo Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log/slog"
	"time"
)

// Option customizes server initialization.
type Option func(*Server)

// WithPort overrides the listening port. Port 0 lets the kernel pick,
// which tests use to run independent servers side by side.
func WithPort(port int) Option {
	return func(s *Server) {
		s.cfg.Port = port
	}
}

// WithGracePeriod overrides the interrupt-to-stop delay.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Server) {
		s.cfg.GracePeriod = d
	}
}

// WithReadBufSize overrides the pooled read buffer size.
func WithReadBufSize(n int) Option {
	return func(s *Server) {
		s.cfg.ReadBufSize = n
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithoutSignalHandler skips the SIGINT subscription. Tests stop the
// loop directly instead of signalling the whole process.
func WithoutSignalHandler() Option {
	return func(s *Server) {
		s.cfg.HandleSignal = false
	}
}

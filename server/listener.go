// File: server/listener.go
// Author: momentics <momentics@gmail.com>
//
// Accept side of the echo server: a nonblocking listening socket
// registered with the event loop. Each readiness notification drains
// all immediately pending connections.

package server

import (
	"fmt"
	"log/slog"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/internal/transport"
)

// Listener owns the bound server socket and its accept callback.
type Listener struct {
	loop api.EventLoop
	log  *slog.Logger
	srv  *Server
	fd   int
	port int
}

// newListener binds 0.0.0.0:port and registers the accept callback.
func newListener(srv *Server, port int) (*Listener, error) {
	fd, err := transport.Listen(port)
	if err != nil {
		return nil, err
	}
	bound, err := transport.LocalPort(fd)
	if err != nil {
		transport.Close(fd)
		return nil, err
	}
	l := &Listener{
		loop: srv.loop,
		log:  srv.log,
		srv:  srv,
		fd:   fd,
		port: bound,
	}
	if err := srv.loop.Register(fd, api.EventRead, l.onAcceptable); err != nil {
		transport.Close(fd)
		return nil, fmt.Errorf("register listener: %w", err)
	}
	return l, nil
}

// Port reports the bound port.
func (l *Listener) Port() int {
	return l.port
}

// onAcceptable accepts every immediately pending connection and wraps
// each in a Conn. Construction failure is fatal for the whole server:
// the error is recorded and the loop is asked to stop.
func (l *Listener) onAcceptable(api.EventFlags) {
	for {
		nfd, err := transport.Accept(l.fd)
		if err != nil {
			if transport.WouldBlock(err) {
				return
			}
			l.log.Error("accept failed", "error", err)
			l.srv.acceptErr = fmt.Errorf("accept: %w", err)
			l.loop.StopAfter(0)
			return
		}
		if err := newConn(l.srv, nfd); err != nil {
			transport.Close(nfd)
			l.log.Error("connection setup failed", "fd", nfd, "error", err)
			l.srv.acceptErr = fmt.Errorf("connection setup: %w", err)
			l.loop.StopAfter(0)
			return
		}
	}
}

// Close deregisters and closes the listening socket.
func (l *Listener) Close() error {
	_ = l.loop.Deregister(l.fd)
	return transport.Close(l.fd)
}

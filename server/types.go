package server

import (
	"log/slog"
	"time"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/pool"
)

// Config holds all server-side configuration parameters.
type Config struct {
	Port         int           // TCP port bound on all interfaces; 0 = kernel-assigned
	ReadBufSize  int           // size of pooled read buffers
	GracePeriod  time.Duration // delay between interrupt and loop stop
	HandleSignal bool          // subscribe the interrupt handler
}

// DefaultConfig returns the echo service defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:         9995,
		ReadBufSize:  64 * 1024,
		GracePeriod:  2 * time.Second,
		HandleSignal: true,
	}
}

// Server is the facade wiring loop, listener, and interrupt handler.
type Server struct {
	cfg      *Config
	log      *slog.Logger
	loop     api.EventLoop
	pool     *pool.BytePool
	listener *Listener

	// set by the accept path when connection construction fails and
	// the loop is asked to stop; reported by Run.
	acceptErr error
}

// File: server/signal.go
// Author: momentics <momentics@gmail.com>
//
// Interrupt subscription: SIGINT arms a delayed loop stop so in-flight
// echoes can finish flushing. The subscription stays active for the
// life of the loop; a second interrupt re-arms a fresh grace window.

package server

import (
	"log/slog"
	"os"
	"time"

	"github.com/momentics/hioload-echo/api"
)

// Interrupt translates the OS interrupt signal into a delayed stop.
type Interrupt struct {
	loop  api.EventLoop
	log   *slog.Logger
	grace time.Duration
}

// registerInterrupt subscribes the handler to os.Interrupt on the loop.
func registerInterrupt(loop api.EventLoop, log *slog.Logger, grace time.Duration) (*Interrupt, error) {
	i := &Interrupt{loop: loop, log: log, grace: grace}
	if err := loop.Notify(os.Interrupt, i.onInterrupt); err != nil {
		return nil, err
	}
	return i, nil
}

// onInterrupt runs on the loop goroutine. It never closes the listener
// or any connection itself; those stay live for the grace window.
func (i *Interrupt) onInterrupt() {
	i.log.Info("caught an interrupt signal; exiting cleanly", "grace", i.grace)
	i.loop.StopAfter(i.grace)
}

// File: api/loop.go
// Package api defines the platform-neutral event-loop contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"os"
	"time"
)

// EventLoop is a single-threaded poll-mode reactor. All callbacks are
// dispatched synchronously on the goroutine that called Run.
type EventLoop interface {
	// Register adds a descriptor with an initial interest set.
	Register(fd int, flags EventFlags, cb Callback) error

	// Modify replaces the interest set of a registered descriptor.
	Modify(fd int, flags EventFlags) error

	// Deregister removes a descriptor from the loop.
	Deregister(fd int) error

	// ScheduleClose removes the descriptor's registration immediately
	// (no further callbacks fire for it) and runs release after the
	// current dispatch pass, outside any callback stack frame.
	ScheduleClose(fd int, release func())

	// Notify subscribes a callback to an OS signal. The callback runs
	// on the loop goroutine. The subscription stays active until the
	// loop is closed.
	Notify(sig os.Signal, cb SignalCallback) error

	// Run blocks, dispatching ready events one callback at a time,
	// until a stop deadline armed by StopAfter fires.
	Run() error

	// StopAfter arms loop termination after d elapses. Calling it
	// again before the deadline re-arms a fresh window: the latest
	// call always wins.
	StopAfter(d time.Duration)

	// Close releases loop-owned resources. Must only be called after
	// Run has returned.
	Close() error
}

// GracefulShutdown is implemented by components that release resources
// in an orderly fashion.
type GracefulShutdown interface {
	Shutdown() error
}

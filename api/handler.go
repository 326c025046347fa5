// File: api/handler.go
// Package api defines callback contracts dispatched by the event loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Callback is invoked by the event loop when a registered descriptor
// becomes ready. Callbacks run to completion on the loop goroutine,
// one at a time, and must never block on I/O.
type Callback func(flags EventFlags)

// SignalCallback is invoked on the loop goroutine when a subscribed
// OS signal has been delivered to the process.
type SignalCallback func()

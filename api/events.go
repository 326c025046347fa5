// File: api/events.go
// Package api defines connection event flags.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// EventFlags is a bit set describing readiness and status conditions
// delivered to a connection callback. Multiple flags may be set in a
// single delivery.
type EventFlags uint32

const (
	// EventRead: the socket has bytes available to read.
	EventRead EventFlags = 1 << iota
	// EventWrite: the socket can accept more outbound bytes.
	EventWrite
	// EventEOF: the peer closed its write side.
	EventEOF
	// EventError: an unrecoverable socket error was reported.
	EventError
	// EventTimeout: an I/O deadline elapsed. No deadlines are armed on
	// echo connections, so this never fires; kept for parity with the
	// full event set.
	EventTimeout
	// EventConnected: an outbound connect completed. Server-accepted
	// sockets never see this; kept for parity with the full event set.
	EventConnected
)

// Has reports whether all bits of want are set.
func (f EventFlags) Has(want EventFlags) bool {
	return f&want == want
}

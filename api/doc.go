// Package api
// Author: momentics <momentics@gmail.com>
//
// Shared contracts for the hioload-echo reactor server.
// Defines the event-loop interface, connection event flags, handler
// callbacks, and common error values used across packages.
package api

// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the hioload-echo packages.

package api

import "fmt"

var (
	ErrLoopClosed    = fmt.Errorf("event loop is closed")
	ErrNotRegistered = fmt.Errorf("descriptor not registered")
	ErrNotSupported  = fmt.Errorf("operation not supported on this platform")
)

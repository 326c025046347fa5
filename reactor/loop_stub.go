//go:build !linux
// +build !linux

// File: reactor/loop_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub constructor for unsupported platforms.

package reactor

import (
	"github.com/momentics/hioload-echo/api"
)

// New returns an error for unsupported platforms. Callers treat this
// as a fatal startup condition.
func New() (api.EventLoop, error) {
	return nil, api.ErrNotSupported
}

// Package transport
// Author: momentics <momentics@gmail.com>
//
// Raw nonblocking socket plumbing beneath the echo server: listener
// setup, accept, and the read/write/close wrappers used by the
// per-connection callbacks. Linux only; other platforms get stub
// constructors that fail at startup.
package transport

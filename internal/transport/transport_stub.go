//go:build !linux
// +build !linux

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stubs for unsupported platforms.

package transport

import "github.com/momentics/hioload-echo/api"

func Listen(port int) (int, error)          { return -1, api.ErrNotSupported }
func LocalPort(fd int) (int, error)         { return 0, api.ErrNotSupported }
func Accept(lfd int) (int, error)           { return -1, api.ErrNotSupported }
func Read(fd int, buf []byte) (int, error)  { return 0, api.ErrNotSupported }
func Write(fd int, buf []byte) (int, error) { return 0, api.ErrNotSupported }
func WouldBlock(err error) bool             { return false }
func SocketErr(fd int) error                { return api.ErrNotSupported }
func Close(fd int) error                    { return api.ErrNotSupported }

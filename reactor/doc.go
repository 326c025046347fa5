// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the single-threaded poll-mode event loop for
// hioload-echo: epoll dispatch on Linux, with timerfd-backed stop
// deadlines and eventfd-backed signal wakeups, plus a stub constructor
// for unsupported platforms.
package reactor

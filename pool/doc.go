// Package pool
// Author: momentics <momentics@gmail.com>
//
// Buffer recycling for the echo server's read path. Connections borrow
// fixed-size byte buffers per drain and return them once the echoed
// bytes have been flushed to the peer.
package pool

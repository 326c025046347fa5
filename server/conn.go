// File: server/conn.go
// Author: momentics <momentics@gmail.com>
//
// Per-client echo state machine. Inbound bytes drain into pooled
// buffers and move verbatim onto the outbound FIFO; the writable
// callback flushes the FIFO head-first until the socket would block.
// Any terminal condition tears the connection down exactly once, with
// the actual close deferred to the loop's reclamation pass.

package server

import (
	"errors"
	"log/slog"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-echo/api"
	"github.com/momentics/hioload-echo/internal/transport"
	"github.com/momentics/hioload-echo/pool"
)

// errHangup stands in when the kernel reports a hang-up condition but
// no errno is pending on the socket.
var errHangup = errors.New("connection hang-up")

// chunk is one drained read, queued for echo. buf is pool-owned; only
// buf[:n] carries payload.
type chunk struct {
	buf []byte
	n   int
}

// Conn is the handle for one accepted client socket.
type Conn struct {
	loop api.EventLoop
	log  *slog.Logger
	pool *pool.BytePool
	fd   int

	out     *queue.Queue // FIFO of chunk
	headOff int          // bytes of the head chunk already written

	// peer half-closed while echoes were still queued; finish the
	// flush, then tear down.
	eofPending bool
	closed     bool
}

// newConn wraps an accepted descriptor and registers it with the loop.
// Read and write callbacks are live from this point on; write interest
// is only armed while the outbound FIFO is non-empty.
func newConn(srv *Server, fd int) error {
	c := &Conn{
		loop: srv.loop,
		log:  srv.log,
		pool: srv.pool,
		fd:   fd,
		out:  queue.New(),
	}
	if err := srv.loop.Register(fd, api.EventRead, c.handleEvent); err != nil {
		return err
	}
	srv.log.Debug("connection accepted", "fd", fd)
	return nil
}

// handleEvent is the single loop callback for this socket. Readiness
// flags are processed read-first, then write, then status; a terminal
// condition inside any step stops the remainder.
func (c *Conn) handleEvent(flags api.EventFlags) {
	if c.closed {
		return
	}
	if flags.Has(api.EventRead) && !c.eofPending {
		c.onReadable()
	}
	if c.closed {
		return
	}
	if flags.Has(api.EventWrite) {
		c.onWritable()
	}
	if c.closed {
		return
	}
	if flags.Has(api.EventError) {
		c.onStatus(api.EventError, transport.SocketErr(c.fd))
	}
}

// onReadable drains the socket until it would block, moving every
// chunk verbatim onto the outbound FIFO. EOF and read errors are
// terminal; EOF with queued output defers teardown until the flush
// completes.
func (c *Conn) onReadable() {
	drained := false
	for {
		buf := c.pool.Get()
		n, err := transport.Read(c.fd, buf)
		if err != nil {
			c.pool.Put(buf)
			if transport.WouldBlock(err) {
				break
			}
			c.onStatus(api.EventError, err)
			return
		}
		if n == 0 {
			c.pool.Put(buf)
			if drained {
				c.log.Info("received", "fd", c.fd)
				drained = false
				c.armWrite()
			}
			c.onEOF()
			return
		}
		c.out.Add(chunk{buf: buf, n: n})
		drained = true
	}
	if drained {
		c.log.Info("received", "fd", c.fd)
		c.armWrite()
	}
}

// onWritable flushes the outbound FIFO head-first. When the FIFO
// empties the echo round is complete: log, drop write interest, and
// finish a deferred EOF teardown if one is pending.
func (c *Conn) onWritable() {
	if c.out.Length() == 0 && !c.eofPending {
		return
	}
	for c.out.Length() > 0 {
		head := c.out.Peek().(chunk)
		n, err := transport.Write(c.fd, head.buf[c.headOff:head.n])
		if err != nil {
			if transport.WouldBlock(err) {
				return
			}
			c.onStatus(api.EventError, err)
			return
		}
		c.headOff += n
		if c.headOff < head.n {
			return
		}
		c.out.Remove()
		c.pool.Put(head.buf)
		c.headOff = 0
	}
	c.log.Info("answered", "fd", c.fd)
	if c.eofPending {
		c.destroy()
		return
	}
	_ = c.loop.Modify(c.fd, api.EventRead)
}

// onEOF handles the peer closing its write side. Queued echoes still
// flush within the remaining lifetime of the loop; teardown happens
// once the FIFO is empty.
func (c *Conn) onEOF() {
	c.log.Info("EOF reached", "fd", c.fd)
	if c.out.Length() > 0 {
		c.eofPending = true
		_ = c.loop.Modify(c.fd, api.EventWrite)
		return
	}
	c.destroy()
}

// onStatus logs every status flag present, then unconditionally
// destroys the connection. Timeout and connected are not reachable for
// server-accepted sockets with no deadlines armed; the branches mirror
// the full status set anyway.
func (c *Conn) onStatus(flags api.EventFlags, err error) {
	if flags.Has(api.EventEOF) {
		c.log.Info("EOF reached", "fd", c.fd)
	}
	if flags.Has(api.EventError) {
		if err == nil {
			err = errHangup
		}
		c.log.Error("connection error", "fd", c.fd, "error", err)
	}
	if flags.Has(api.EventTimeout) {
		c.log.Info("timeout reached", "fd", c.fd)
	}
	if flags.Has(api.EventConnected) {
		c.log.Info("connect finished", "fd", c.fd)
	}
	c.destroy()
}

// armWrite adds write interest while the FIFO is non-empty.
func (c *Conn) armWrite() {
	flags := api.EventRead | api.EventWrite
	if c.eofPending {
		flags = api.EventWrite
	}
	_ = c.loop.Modify(c.fd, flags)
}

// destroy tears the connection down exactly once. The registration is
// dropped immediately so no further callback fires; the socket close
// and buffer release run in the loop's reclamation pass, outside this
// callback's stack frame.
func (c *Conn) destroy() {
	if c.closed {
		return
	}
	c.closed = true
	c.loop.ScheduleClose(c.fd, func() {
		transport.Close(c.fd)
		for c.out.Length() > 0 {
			head := c.out.Remove().(chunk)
			c.pool.Put(head.buf)
		}
		c.log.Debug("connection closed", "fd", c.fd)
	})
}

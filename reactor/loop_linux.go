//go:build linux
// +build linux

// File: reactor/loop_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) event loop. A timerfd registered in the epoll set
// carries the stop deadline; an eventfd carries signal wakeups so that
// signal callbacks run on the loop goroutine like every other callback.

package reactor

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-echo/api"
)

const maxEvents = 128

type registration struct {
	flags api.EventFlags
	cb    api.Callback
}

type pendingClose struct {
	fd      int
	release func()
}

// Loop is the Linux epoll implementation of api.EventLoop.
//
// Registration methods and ScheduleClose must be called either before
// Run or from a callback on the loop goroutine. StopAfter is safe from
// any goroutine.
type Loop struct {
	epfd    int
	timerfd int
	wakefd  int

	regs    map[int]*registration
	closing []pendingClose
	stop    bool

	sigMu      sync.Mutex
	sigPending []os.Signal
	sigCbs     map[os.Signal][]api.SignalCallback
	sigCh      chan os.Signal
	sigDone    chan struct{}

	closed bool
}

var _ api.EventLoop = (*Loop)(nil)

// New constructs the loop along with its timer and wakeup descriptors.
// Failure here is a fatal startup condition for callers.
func New() (api.EventLoop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	timerfd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("timerfd create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(timerfd)
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd create: %w", err)
	}

	l := &Loop{
		epfd:    epfd,
		timerfd: timerfd,
		wakefd:  wakefd,
		regs:    make(map[int]*registration),
		sigCbs:  make(map[os.Signal][]api.SignalCallback),
		sigDone: make(chan struct{}),
	}

	for _, fd := range []int{timerfd, wakefd} {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			l.Close()
			return nil, fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
		}
	}
	return l, nil
}

// Register adds fd to the epoll set with the given interest.
func (l *Loop) Register(fd int, flags api.EventFlags, cb api.Callback) error {
	if l.closed {
		return api.ErrLoopClosed
	}
	ev := unix.EpollEvent{Events: epollEvents(flags), Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	l.regs[fd] = &registration{flags: flags, cb: cb}
	return nil
}

// Modify replaces the interest set of a registered descriptor.
func (l *Loop) Modify(fd int, flags api.EventFlags) error {
	reg, ok := l.regs[fd]
	if !ok {
		return api.ErrNotRegistered
	}
	ev := unix.EpollEvent{Events: epollEvents(flags), Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	reg.flags = flags
	return nil
}

// Deregister removes fd from the epoll set and the registration table.
func (l *Loop) Deregister(fd int) error {
	if _, ok := l.regs[fd]; !ok {
		return api.ErrNotRegistered
	}
	delete(l.regs, fd)
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// ScheduleClose drops the registration now, so no further callbacks
// fire for fd, and queues release to run after the dispatch pass.
func (l *Loop) ScheduleClose(fd int, release func()) {
	if _, ok := l.regs[fd]; ok {
		delete(l.regs, fd)
		_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}
	l.closing = append(l.closing, pendingClose{fd: fd, release: release})
}

// Notify subscribes cb to sig. The first subscription starts the pump
// goroutine that forwards os/signal deliveries into the wakeup eventfd;
// the callback itself always runs on the loop goroutine.
func (l *Loop) Notify(sig os.Signal, cb api.SignalCallback) error {
	if l.closed {
		return api.ErrLoopClosed
	}
	l.sigMu.Lock()
	defer l.sigMu.Unlock()
	l.sigCbs[sig] = append(l.sigCbs[sig], cb)
	if l.sigCh == nil {
		l.sigCh = make(chan os.Signal, 8)
		go l.pumpSignals()
	}
	signal.Notify(l.sigCh, sig)
	return nil
}

func (l *Loop) pumpSignals() {
	one := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	for {
		select {
		case s := <-l.sigCh:
			l.sigMu.Lock()
			l.sigPending = append(l.sigPending, s)
			l.sigMu.Unlock()
			_, _ = unix.Write(l.wakefd, one)
		case <-l.sigDone:
			return
		}
	}
}

// Run dispatches ready events until the stop deadline fires. Events
// that became ready before the deadline are still delivered within the
// final dispatch pass.
func (l *Loop) Run() error {
	events := make([]unix.EpollEvent, maxEvents)
	for {
		n, err := unix.EpollWait(l.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll wait: %w", err)
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			switch fd {
			case l.timerfd:
				l.drain(l.timerfd)
				l.stop = true
			case l.wakefd:
				l.drain(l.wakefd)
				l.dispatchSignals()
			default:
				// A callback earlier in this pass may have scheduled
				// this descriptor for close; its registration is gone
				// and the event must be dropped.
				reg, ok := l.regs[fd]
				if !ok {
					continue
				}
				reg.cb(connFlags(events[i].Events))
			}
		}
		l.reclaim()
		if l.stop {
			return nil
		}
	}
}

// StopAfter arms the stop timerfd. TimerfdSettime atomically replaces
// any pending expiration, so the latest call always wins.
func (l *Loop) StopAfter(d time.Duration) {
	if d <= 0 {
		d = time.Nanosecond // zero would disarm the timer instead
	}
	spec := unix.ItimerSpec{Value: unix.NsecToTimespec(d.Nanoseconds())}
	_ = unix.TimerfdSettime(l.timerfd, 0, &spec, nil)
}

// Close releases the loop descriptors and stops the signal pump.
// Only legal after Run has returned.
func (l *Loop) Close() error {
	if l.closed {
		return api.ErrLoopClosed
	}
	l.closed = true
	if l.sigCh != nil {
		signal.Stop(l.sigCh)
	}
	close(l.sigDone)
	// Connections still registered at shutdown are owned by the table;
	// release their sockets with the loop.
	for fd := range l.regs {
		unix.Close(fd)
	}
	l.regs = nil
	unix.Close(l.wakefd)
	unix.Close(l.timerfd)
	return unix.Close(l.epfd)
}

// reclaim runs queued releases outside any callback stack frame.
func (l *Loop) reclaim() {
	if len(l.closing) == 0 {
		return
	}
	pending := l.closing
	l.closing = nil
	for _, pc := range pending {
		if pc.release != nil {
			pc.release()
		}
	}
}

func (l *Loop) dispatchSignals() {
	l.sigMu.Lock()
	pending := l.sigPending
	l.sigPending = nil
	cbs := make(map[os.Signal][]api.SignalCallback, len(l.sigCbs))
	for s, list := range l.sigCbs {
		cbs[s] = list
	}
	l.sigMu.Unlock()

	for _, s := range pending {
		for _, cb := range cbs[s] {
			cb()
		}
	}
}

// drain consumes the 8-byte counter of a timerfd/eventfd.
func (l *Loop) drain(fd int) {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err != nil {
			return
		}
	}
}

func epollEvents(flags api.EventFlags) uint32 {
	var ev uint32
	if flags.Has(api.EventRead) {
		ev |= unix.EPOLLIN
	}
	if flags.Has(api.EventWrite) {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func connFlags(events uint32) api.EventFlags {
	var flags api.EventFlags
	if events&unix.EPOLLIN != 0 {
		flags |= api.EventRead
	}
	if events&unix.EPOLLOUT != 0 {
		flags |= api.EventWrite
	}
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		flags |= api.EventError
	}
	return flags
}

//go:build linux

package coreloop

import (
	"golang.org/x/sys/unix"
)

// maxEpollFDs bounds direct-indexed FD storage, mirroring the teacher's
// fixed fds array; unlike the teacher, there is no RWMutex guarding it,
// since the loop is single-threaded and this reactor is only ever touched
// from the dispatch goroutine.
const maxEpollFDs = 65536

type fdRegistration struct {
	reader, writer Task
	active         bool
}

// epollReactor is the default Linux Reactor, backed by epoll. It is the
// single-threaded, Task-oriented descendant of the teacher's FastPoller:
// the version-counter staleness check and RWMutex are dropped (nothing
// else can mutate fds concurrently), and events resolve to scheduling a
// Task via schedule rather than invoking a raw IOCallback.
type epollReactor struct {
	epfd     int
	fds      [maxEpollFDs]fdRegistration
	eventBuf [256]unix.EpollEvent
	schedule func(Task) error
}

// newDefaultReactor returns the platform Reactor used when no WithReactor
// option is supplied.
func newDefaultReactor(schedule func(Task) error) (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollReactor{epfd: epfd, schedule: schedule}, nil
}

func (r *epollReactor) Wait(delayMs int64) error {
	timeout := int(delayMs)
	if delayMs < 0 {
		timeout = -1
	}
	n, err := unix.EpollWait(r.epfd, r.eventBuf[:], timeout)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		fd := int(r.eventBuf[i].Fd)
		if fd < 0 || fd >= maxEpollFDs {
			continue
		}
		reg := &r.fds[fd]
		if !reg.active {
			continue
		}
		events := r.eventBuf[i].Events
		if events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 && reg.reader != nil {
			if err := r.schedule(reg.reader); err != nil {
				return err
			}
		}
		if events&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 && reg.writer != nil {
			if err := r.schedule(reg.writer); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *epollReactor) ctl(fd int) error {
	reg := &r.fds[fd]
	var events uint32
	if reg.reader != nil {
		events |= unix.EPOLLIN
	}
	if reg.writer != nil {
		events |= unix.EPOLLOUT
	}
	ev := &unix.EpollEvent{Events: events, Fd: int32(fd)}
	op := unix.EPOLL_CTL_MOD
	if !reg.active {
		op = unix.EPOLL_CTL_ADD
	}
	if err := unix.EpollCtl(r.epfd, op, fd, ev); err != nil {
		return err
	}
	reg.active = true
	return nil
}

func (r *epollReactor) AddReader(h IOHandle, task Task) error {
	if int(h) < 0 || int(h) >= maxEpollFDs {
		return ErrFDOutOfRange
	}
	r.fds[h].reader = task
	return r.ctl(int(h))
}

func (r *epollReactor) AddWriter(h IOHandle, task Task) error {
	if int(h) < 0 || int(h) >= maxEpollFDs {
		return ErrFDOutOfRange
	}
	r.fds[h].writer = task
	return r.ctl(int(h))
}

func (r *epollReactor) RemoveReader(h IOHandle) error {
	if int(h) < 0 || int(h) >= maxEpollFDs {
		return ErrFDOutOfRange
	}
	r.fds[h].reader = nil
	if r.fds[h].reader == nil && r.fds[h].writer == nil {
		return r.detach(int(h))
	}
	return r.ctl(int(h))
}

func (r *epollReactor) RemoveWriter(h IOHandle) error {
	if int(h) < 0 || int(h) >= maxEpollFDs {
		return ErrFDOutOfRange
	}
	r.fds[h].writer = nil
	if r.fds[h].reader == nil && r.fds[h].writer == nil {
		return r.detach(int(h))
	}
	return r.ctl(int(h))
}

func (r *epollReactor) detach(fd int) error {
	reg := &r.fds[fd]
	if !reg.active {
		return nil
	}
	reg.active = false
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Close releases the epoll file descriptor.
func (r *epollReactor) Close() error {
	return closeFD(r.epfd)
}

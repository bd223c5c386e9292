//go:build darwin

package coreloop

import (
	"golang.org/x/sys/unix"
)

type fdRegistration struct {
	reader, writer Task
}

// kqueueReactor is the default Darwin Reactor, backed by kqueue. Like
// epollReactor on Linux, it drops the teacher's RWMutex/version-counter
// machinery: the loop is single-threaded, so nothing else can race it.
type kqueueReactor struct {
	kq       int
	fds      map[int]*fdRegistration
	eventBuf [256]unix.Kevent_t
	schedule func(Task) error
}

// newDefaultReactor returns the platform Reactor used when no WithReactor
// option is supplied.
func newDefaultReactor(schedule func(Task) error) (Reactor, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueueReactor{kq: kq, fds: make(map[int]*fdRegistration), schedule: schedule}, nil
}

func (r *kqueueReactor) Wait(delayMs int64) error {
	var ts *unix.Timespec
	if delayMs >= 0 {
		t := unix.NsecToTimespec(delayMs * int64(1e6))
		ts = &t
	}
	n, err := unix.Kevent(r.kq, nil, r.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		ev := r.eventBuf[i]
		fd := int(ev.Ident)
		reg, ok := r.fds[fd]
		if !ok {
			continue
		}
		switch ev.Filter {
		case unix.EVFILT_READ:
			if reg.reader != nil {
				if err := r.schedule(reg.reader); err != nil {
					return err
				}
			}
		case unix.EVFILT_WRITE:
			if reg.writer != nil {
				if err := r.schedule(reg.writer); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *kqueueReactor) changeOne(fd int, filter int16, flags uint16) error {
	kev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  flags,
	}
	_, err := unix.Kevent(r.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (r *kqueueReactor) reg(fd int) *fdRegistration {
	reg, ok := r.fds[fd]
	if !ok {
		reg = &fdRegistration{}
		r.fds[fd] = reg
	}
	return reg
}

func (r *kqueueReactor) AddReader(h IOHandle, task Task) error {
	fd := int(h)
	r.reg(fd).reader = task
	return r.changeOne(fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE)
}

func (r *kqueueReactor) AddWriter(h IOHandle, task Task) error {
	fd := int(h)
	r.reg(fd).writer = task
	return r.changeOne(fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE)
}

func (r *kqueueReactor) RemoveReader(h IOHandle) error {
	fd := int(h)
	reg, ok := r.fds[fd]
	if !ok {
		return nil
	}
	reg.reader = nil
	err := r.changeOne(fd, unix.EVFILT_READ, unix.EV_DELETE)
	r.maybeForget(fd)
	return err
}

func (r *kqueueReactor) RemoveWriter(h IOHandle) error {
	fd := int(h)
	reg, ok := r.fds[fd]
	if !ok {
		return nil
	}
	reg.writer = nil
	err := r.changeOne(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	r.maybeForget(fd)
	return err
}

func (r *kqueueReactor) maybeForget(fd int) {
	if reg, ok := r.fds[fd]; ok && reg.reader == nil && reg.writer == nil {
		delete(r.fds, fd)
	}
}

// Close releases the kqueue file descriptor.
func (r *kqueueReactor) Close() error {
	return closeFD(r.kq)
}

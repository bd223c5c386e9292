//go:build linux || darwin

package coreloop

import (
	"golang.org/x/sys/unix"
)

// closeFD closes a file descriptor on Unix systems; used by the
// epoll/kqueue reactors to release their poller fd on Close.
func closeFD(fd int) error {
	return unix.Close(fd)
}

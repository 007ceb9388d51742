//go:build linux || darwin || freebsd || netbsd || openbsd

package wire

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// control disables Nagle's algorithm and enables keep-alive probes on the
// socket before it connects.
func control(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		if serr == nil {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
		}
	})
	if err != nil {
		return err
	}
	return serr
}

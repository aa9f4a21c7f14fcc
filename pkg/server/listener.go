package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// listen creates an IPv4 listening socket bound to the wildcard address.
//
// Address and port reuse are enabled before bind so a restarted server can
// rebind right away. The backlog is whatever the platform maximum is; the
// Go runtime reads it from the kernel.
func listen(port int) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = setReuseOptions(fd)
			}); err != nil {
				return os.NewSyscallError("setsockopt", err)
			}
			return sockErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, &SetupError{Step: setupStep(err), Port: port, Err: err}
	}
	return ln, nil
}

// setupStep names the syscall that failed inside net.Listen.
func setupStep(err error) string {
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Syscall
	}
	return "listen"
}

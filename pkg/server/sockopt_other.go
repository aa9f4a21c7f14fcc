//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package server

// setReuseOptions is a no-op where SO_REUSEPORT is not available.
func setReuseOptions(fd uintptr) error {
	return nil
}

package server

import (
	"errors"
	"fmt"
)

var (
	// ErrServerStopped is returned by Run once Stop has been called.
	ErrServerStopped = errors.New("server: stopped")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("server: already running")
)

// SetupError reports a failure while creating the listening socket.
//
// Step is one of "socket", "setsockopt", "bind" or "listen". Setup errors
// are not retryable: the caller is expected to exit.
type SetupError struct {
	Step string
	Port int
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s failed on port %d: %v", e.Step, e.Port, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

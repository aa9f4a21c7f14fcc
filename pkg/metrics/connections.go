package metrics

import "time"

// Byte transfer directions for RecordBytesTransferred.
const (
	DirectionRead  = "read"
	DirectionWrite = "write"
)

// ServerMetrics observes the connection lifecycle of the server.
//
// Implementations must be safe for concurrent use: the accept loop and every
// connection worker call into the same instance.
type ServerMetrics interface {
	// RecordConnectionAccepted counts a connection handed to a worker and
	// adds one to the active worker count.
	RecordConnectionAccepted()

	// RecordConnectionClosed counts a worker that closed its connection,
	// with the time from accept to close, and removes one from the active
	// worker count.
	RecordConnectionClosed(duration time.Duration)

	// RecordAcceptError counts a failed accept that the loop retried.
	RecordAcceptError()

	// RecordResponse counts a response written with the given status code.
	RecordResponse(statusCode int)

	// RecordBytesTransferred records bytes read from or written to clients.
	RecordBytesTransferred(direction string, bytes int64)
}

// NewNoopServerMetrics returns a ServerMetrics that records nothing.
func NewNoopServerMetrics() ServerMetrics {
	return noopServerMetrics{}
}

type noopServerMetrics struct{}

func (noopServerMetrics) RecordConnectionAccepted()            {}
func (noopServerMetrics) RecordConnectionClosed(time.Duration) {}
func (noopServerMetrics) RecordAcceptError()                   {}
func (noopServerMetrics) RecordResponse(int)                   {}
func (noopServerMetrics) RecordBytesTransferred(string, int64) {}

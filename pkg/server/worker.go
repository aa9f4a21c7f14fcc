package server

import (
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/hellod/internal/logger"
	"github.com/marmos91/hellod/internal/protocol/http1"
	"github.com/marmos91/hellod/pkg/metrics"
)

// worker handles exactly one accepted connection.
//
// The connection belongs to the worker from spawn to close. done is closed
// after the connection has been closed, so join waits for the socket to be
// released as well as for the goroutine to finish.
type worker struct {
	id       string
	conn     net.Conn
	remote   string
	accepted time.Time
	done     chan struct{}
}

func newWorker(conn net.Conn) *worker {
	return &worker{
		id:       uuid.NewString(),
		conn:     conn,
		remote:   conn.RemoteAddr().String(),
		accepted: time.Now(),
		done:     make(chan struct{}),
	}
}

// join blocks until the worker has exited.
func (w *worker) join() {
	<-w.done
}

// serve reads one request, writes at most one response and closes the
// connection on every path.
func (w *worker) serve(m metrics.ServerMetrics) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[%s] panic in connection worker for %s: %v", w.id, w.remote, r)
		}
		if err := w.conn.Close(); err != nil {
			logger.Debug("[%s] error closing connection from %s: %v", w.id, w.remote, err)
		}
	}()

	logger.Debug("[%s] connection from %s", w.id, w.remote)

	raw, result, err := http1.ReadRequest(w.conn)
	if len(raw) > 0 {
		m.RecordBytesTransferred(metrics.DirectionRead, int64(len(raw)))
	}

	switch result {
	case http1.ReadFailed:
		logger.Warn("[%s] recv failed from %s: %v", w.id, w.remote, err)
		return
	case http1.PeerClosed:
		if len(raw) == 0 {
			logger.Debug("[%s] %s closed without sending a request", w.id, w.remote)
			return
		}
	}

	line := http1.ParseRequestLine(raw)
	resp := http1.ResponseFor(line.Method)

	n, err := resp.WriteTo(w.conn)
	if n > 0 {
		m.RecordBytesTransferred(metrics.DirectionWrite, n)
	}
	if err != nil {
		logger.Warn("[%s] send failed to %s after %d bytes: %v", w.id, w.remote, n, err)
		return
	}

	m.RecordResponse(resp.StatusCode)
	logger.Debug("[%s] %s %q %q %s -> %d (%s)",
		w.id, w.remote, line.Method, line.Target, line.Version, resp.StatusCode, result)
}

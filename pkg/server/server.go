package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/marmos91/hellod/internal/logger"
	"github.com/marmos91/hellod/internal/ratelimiter"
	"github.com/marmos91/hellod/pkg/metrics"
)

// Accept errors are retried immediately; only their reporting is throttled.
const (
	acceptErrorReportsPerSecond = 1
	acceptErrorReportBurst      = 5
)

// Config holds the server configuration.
type Config struct {
	// Port is the TCP port to bind on all IPv4 interfaces.
	// 0 binds an ephemeral port; Port() reports the one chosen.
	Port int `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`

	// MetricsLogInterval is how often the number of running workers is
	// logged while accepting. 0 disables the log line.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" yaml:"metrics_log_interval" validate:"min=0"`
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.MetricsLogInterval < 0 {
		return fmt.Errorf("invalid MetricsLogInterval %v: must be >= 0", c.MetricsLogInterval)
	}
	return nil
}

// Server accepts TCP connections and answers each with a fixed HTTP
// response from its own goroutine.
//
// Thread safety:
// Run must be called once, from the goroutine that should block in the
// accept loop. Stop, Close and the accessors are safe from any goroutine.
type Server struct {
	config Config

	// mu guards state and listener.
	mu       sync.Mutex
	state    State
	listener net.Listener
	addr     net.Addr

	// running is read by the accept loop on every iteration.
	running atomic.Bool

	workers       workerRegistry
	activeWorkers atomic.Int32

	metrics       metrics.ServerMetrics
	acceptReports *ratelimiter.Throttle

	stopOnce sync.Once
	// stopped is closed when Stop begins; it ends background goroutines.
	stopped chan struct{}
	// loopDone is closed when the accept loop returns.
	loopDone chan struct{}
}

// New binds and listens on the configured port.
//
// A nil m disables metrics. Socket setup failures are returned as
// *SetupError and are not retryable.
func New(config Config, m metrics.ServerMetrics) (*Server, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if m == nil {
		m = metrics.NewNoopServerMetrics()
	}

	ln, err := listen(config.Port)
	if err != nil {
		return nil, err
	}

	s := newServer(config, ln, m)
	logger.Info("Listening on %s", s.addr)
	return s, nil
}

func newServer(config Config, ln net.Listener, m metrics.ServerMetrics) *Server {
	return &Server{
		config:        config,
		state:         StateIdle,
		listener:      ln,
		addr:          ln.Addr(),
		metrics:       m,
		acceptReports: ratelimiter.New(acceptErrorReportsPerSecond, acceptErrorReportBurst),
		stopped:       make(chan struct{}),
		loopDone:      make(chan struct{}),
	}
}

// Run accepts connections until Stop is called.
//
// Run blocks the calling goroutine. It returns nil once the accept loop has
// exited because of Stop, ErrAlreadyRunning if the loop is already running,
// and ErrServerStopped if Stop was called first. Run returns before the
// workers are drained; Stop is what waits for them.
func (s *Server) Run() error {
	ln, err := s.begin()
	if err != nil {
		return err
	}
	s.run(ln)
	return nil
}

// begin moves the server from Idle to Accepting.
func (s *Server) begin() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAccepting:
		return nil, ErrAlreadyRunning
	case StateDraining, StateStopped:
		return nil, ErrServerStopped
	}
	s.state = StateAccepting
	s.running.Store(true)
	return s.listener, nil
}

func (s *Server) run(ln net.Listener) {
	defer close(s.loopDone)

	if s.config.MetricsLogInterval > 0 {
		go s.logMetrics()
	}

	logger.Info("Accepting connections on %s", s.addr)
	s.acceptLoop(ln)
	logger.Debug("Accept loop exited")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for s.running.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			// Stop closes the listener to get us here.
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.reportAcceptError(err)
			continue
		}

		s.spawn(conn)
	}
}

// spawn starts a worker for conn and registers its handle.
func (s *Server) spawn(conn net.Conn) {
	w := newWorker(conn)

	s.activeWorkers.Add(1)
	s.metrics.RecordConnectionAccepted()

	go func() {
		defer s.finish(w)
		w.serve(s.metrics)
	}()

	s.workers.add(w)
}

// finish runs after the worker has closed its connection.
func (s *Server) finish(w *worker) {
	s.activeWorkers.Add(-1)
	s.metrics.RecordConnectionClosed(time.Since(w.accepted))
	close(w.done)
}

func (s *Server) reportAcceptError(err error) {
	s.metrics.RecordAcceptError()
	if ok, suppressed := s.acceptReports.Allow(); ok {
		if suppressed > 0 {
			logger.Error("accept failed: %v (%d similar errors suppressed)", err, suppressed)
		} else {
			logger.Error("accept failed: %v", err)
		}
	}
}

// Stop stops accepting, unblocks the accept loop and waits for every worker
// to finish.
//
// Stop is idempotent and safe to call before Run, concurrently with Run,
// and from several goroutines. Concurrent callers all return once the first
// call has finished draining. Workers are not interrupted: Stop returns
// only after each one completes its connection.
func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	s.mu.Lock()
	started := s.state == StateAccepting
	s.state = StateDraining
	s.running.Store(false)
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	close(s.stopped)

	if ln != nil {
		if err := ln.Close(); err != nil {
			logger.Debug("Error closing listener: %v", err)
		}
	}

	// The loop may register one last worker after the listener closed.
	if started {
		<-s.loopDone
	}

	pending := s.activeWorkers.Load()
	if pending > 0 {
		logger.Info("Waiting for %d active connection(s) to finish", pending)
	}
	joined := s.workers.drain()

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	logger.Info("Server stopped (%d worker(s) joined)", joined)
}

// Close is Stop behind io.Closer. It always returns nil.
func (s *Server) Close() error {
	s.Stop()
	return nil
}

// Serve runs the accept loop and stops the server when ctx is cancelled.
//
// Unlike Run, Serve returns only after the workers have been drained. If the
// server is already running or stopped, Serve returns the same error as Run
// and leaves the server untouched.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := s.begin()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received: %v", ctx.Err())
			s.Stop()
		case <-s.stopped:
		}
	}()

	s.run(ln)
	s.Stop()
	return nil
}

// logMetrics periodically logs the number of running workers.
func (s *Server) logMetrics() {
	ticker := time.NewTicker(s.config.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
			logger.Info("active_workers=%d registered_workers=%d",
				s.activeWorkers.Load(), s.workers.len())
		}
	}
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Port returns the bound TCP port, which differs from the configured one
// when the configured port is 0.
func (s *Server) Port() int {
	if tcp, ok := s.addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return s.config.Port
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveWorkers returns the number of workers that have not finished.
func (s *Server) ActiveWorkers() int32 {
	return s.activeWorkers.Load()
}

// RegisteredWorkers returns the number of worker handles awaiting a join.
func (s *Server) RegisteredWorkers() int {
	return s.workers.len()
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/marmos91/hellod/internal/protocol/http1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(Config{Port: 0}, nil)
	require.NoError(t, err)
	t.Cleanup(srv.Stop)
	return srv
}

// startServer runs the accept loop in the background and waits for it.
func startServer(t *testing.T) (*Server, <-chan error) {
	t.Helper()
	srv := newTestServer(t)

	runDone := make(chan error, 1)
	go func() { runDone <- srv.Run() }()

	require.Eventually(t, func() bool {
		return srv.State() == StateAccepting
	}, 2*time.Second, 5*time.Millisecond)

	return srv, runDone
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp4", fmt.Sprintf("127.0.0.1:%d", srv.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// roundTrip sends request and reads until the server closes.
func roundTrip(t *testing.T, srv *Server, request string) string {
	t.Helper()
	conn := dial(t, srv)
	_, err := io.WriteString(conn, request)
	require.NoError(t, err)

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(resp)
}

// ============================================================================
// Construction
// ============================================================================

func TestNew(t *testing.T) {
	t.Run("EphemeralPort", func(t *testing.T) {
		srv := newTestServer(t)
		assert.NotZero(t, srv.Port())
		assert.Equal(t, StateIdle, srv.State())
		assert.Zero(t, srv.RegisteredWorkers())
	})

	t.Run("InvalidPort", func(t *testing.T) {
		_, err := New(Config{Port: 70000}, nil)
		require.Error(t, err)
		var setupErr *SetupError
		assert.False(t, errors.As(err, &setupErr))
	})

	t.Run("PortHeldByExclusiveListener", func(t *testing.T) {
		held, err := net.Listen("tcp4", "0.0.0.0:0")
		require.NoError(t, err)
		defer held.Close()

		port := held.Addr().(*net.TCPAddr).Port
		_, err = New(Config{Port: port}, nil)
		require.Error(t, err)

		var setupErr *SetupError
		require.True(t, errors.As(err, &setupErr))
		assert.Equal(t, "bind", setupErr.Step)
		assert.Equal(t, port, setupErr.Port)
	})

	t.Run("RebindAfterStop", func(t *testing.T) {
		srv, err := New(Config{Port: 0}, nil)
		require.NoError(t, err)
		port := srv.Port()
		srv.Stop()

		again, err := New(Config{Port: port}, nil)
		require.NoError(t, err)
		again.Stop()
	})
}

func TestSetupStep(t *testing.T) {
	bindErr := &net.OpError{Op: "listen", Err: os.NewSyscallError("bind", syscall.EADDRINUSE)}
	assert.Equal(t, "bind", setupStep(bindErr))
	assert.ErrorIs(t, &SetupError{Step: "bind", Err: bindErr}, syscall.EADDRINUSE)
	assert.Equal(t, "listen", setupStep(errors.New("something else")))
}

// ============================================================================
// Connection Worker Scenarios
// ============================================================================

func TestGetReturnsHello(t *testing.T) {
	srv, _ := startServer(t)

	resp := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")

	assert.Equal(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Length: 49\r\n"+
		"Content-Type: text/html\r\n"+
		"Connection: close\r\n"+
		"\r\n"+
		"<html><body><h1>Hello, World!</h1></body></html>", resp)
}

func TestNonGetReturns405(t *testing.T) {
	srv, _ := startServer(t)

	for _, request := range []string{
		"POST / HTTP/1.1\r\n\r\n",
		"DELETE /x HTTP/1.1\r\nHost: a\r\n\r\n",
		"get / HTTP/1.1\r\n\r\n",
		"\r\n\r\n",
		"garbage",
	} {
		t.Run(strings.TrimSpace(request), func(t *testing.T) {
			conn := dial(t, srv)
			_, err := io.WriteString(conn, request)
			require.NoError(t, err)
			// Half-close so requests without a terminator still finish.
			require.NoError(t, conn.(*net.TCPConn).CloseWrite())

			resp, err := io.ReadAll(conn)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(resp), "HTTP/1.1 405 Method Not Allowed\r\n"), "got %q", resp)
			assert.True(t, strings.HasSuffix(string(resp), http1.MethodNotAllowedBody))
		})
	}
}

func TestEmptyConnectionGetsNoResponse(t *testing.T) {
	srv, _ := startServer(t)

	conn := dial(t, srv)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, resp)
}

func TestResponseIsSentOnce(t *testing.T) {
	srv, _ := startServer(t)

	// Two requests on one connection: only the first is answered.
	resp := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\nGET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, 1, strings.Count(resp, "HTTP/1.1 "))
}

func TestConcurrentClients(t *testing.T) {
	srv, _ := startServer(t)

	const clients = 50
	var wg sync.WaitGroup
	results := make([]string, clients)
	errs := make([]error, clients)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := net.Dial("tcp4", fmt.Sprintf("127.0.0.1:%d", srv.Port()))
			if err != nil {
				errs[i] = err
				return
			}
			defer conn.Close()

			method := "GET"
			if i%2 == 1 {
				method = "PUT"
			}
			if _, err := fmt.Fprintf(conn, "%s /%d HTTP/1.1\r\n\r\n", method, i); err != nil {
				errs[i] = err
				return
			}
			b, err := io.ReadAll(conn)
			results[i], errs[i] = string(b), err
		}(i)
	}
	wg.Wait()

	for i := 0; i < clients; i++ {
		require.NoError(t, errs[i], "client %d", i)
		want := http1.ResponseFor("GET")
		if i%2 == 1 {
			want = http1.ResponseFor("PUT")
		}
		assert.Equal(t, string(want.Bytes()), results[i], "client %d", i)
	}
}

func TestSlowClientDoesNotBlockOthers(t *testing.T) {
	srv, _ := startServer(t)

	slow := dial(t, srv)
	_, err := io.WriteString(slow, "GET / HTTP/1.1\r\n")
	require.NoError(t, err)

	resp := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	assert.Contains(t, resp, "200 OK")

	_, err = io.WriteString(slow, "\r\n")
	require.NoError(t, err)
	b, err := io.ReadAll(slow)
	require.NoError(t, err)
	assert.Contains(t, string(b), "200 OK")
}

// ============================================================================
// Shutdown Coordination
// ============================================================================

func TestStopBeforeRun(t *testing.T) {
	srv := newTestServer(t)

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop before Run blocked")
	}

	assert.Equal(t, StateStopped, srv.State())
	assert.ErrorIs(t, srv.Run(), ErrServerStopped)
}

func TestStopTwice(t *testing.T) {
	srv, runDone := startServer(t)

	srv.Stop()
	srv.Stop()
	assert.NoError(t, srv.Close())

	require.NoError(t, <-runDone)
	assert.Equal(t, StateStopped, srv.State())
}

func TestConcurrentStop(t *testing.T) {
	srv, runDone := startServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.Stop()
			// Every caller returns only after the drain finished.
			assert.Equal(t, StateStopped, srv.State())
		}()
	}
	wg.Wait()
	require.NoError(t, <-runDone)
}

func TestStopUnblocksAccept(t *testing.T) {
	srv, runDone := startServer(t)

	start := time.Now()
	srv.Stop()

	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not exit after Stop")
	}
	assert.Less(t, time.Since(start), time.Second)

	_, err := net.DialTimeout("tcp4", fmt.Sprintf("127.0.0.1:%d", srv.Port()), 200*time.Millisecond)
	assert.Error(t, err, "listener should be closed")
}

func TestRunTwice(t *testing.T) {
	srv, _ := startServer(t)
	assert.ErrorIs(t, srv.Run(), ErrAlreadyRunning)
}

func TestStopDrainsRegistry(t *testing.T) {
	srv, _ := startServer(t)

	for i := 0; i < 5; i++ {
		roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	}
	// Finished workers stay registered until Stop joins them.
	assert.Equal(t, 5, srv.RegisteredWorkers())

	srv.Stop()
	assert.Zero(t, srv.RegisteredWorkers())
	assert.Zero(t, srv.ActiveWorkers())
}

func TestStopWaitsForInFlightWorker(t *testing.T) {
	srv, _ := startServer(t)

	conn := dial(t, srv)
	_, err := io.WriteString(conn, "GET / HTTP/1.1\r\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return srv.ActiveWorkers() == 1
	}, 2*time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a worker was still reading")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, StateDraining, srv.State())

	_, err = io.WriteString(conn, "\r\n")
	require.NoError(t, err)
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Contains(t, string(resp), "200 OK")

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the worker finished")
	}
	assert.Zero(t, srv.RegisteredWorkers())
}

func TestServe(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		return srv.State() == StateAccepting
	}, 2*time.Second, 5*time.Millisecond)

	resp := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	assert.Contains(t, resp, "200 OK")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, StateStopped, srv.State())
	assert.Zero(t, srv.RegisteredWorkers())
}

func TestServeWhileRunningLeavesServerAccepting(t *testing.T) {
	srv, runDone := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	err := srv.Serve(ctx)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// Cancelling the rejected Serve's context must not stop the server.
	cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateAccepting, srv.State())

	resp := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	assert.Contains(t, resp, "200 OK")

	srv.Stop()
	require.NoError(t, <-runDone)
}

func TestServeAfterStop(t *testing.T) {
	srv := newTestServer(t)
	srv.Stop()

	err := srv.Serve(context.Background())
	assert.ErrorIs(t, err, ErrServerStopped)
	assert.Equal(t, StateStopped, srv.State())
}

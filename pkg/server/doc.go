// Package server implements hellod's connection lifecycle.
//
// A Server owns one listening socket, bound when the Server is constructed.
// Run parks the calling goroutine in an accept loop that hands every
// connection to its own worker goroutine and records the worker in a
// registry. Stop closes the listener, which unblocks the pending Accept,
// waits for the loop to exit and then joins every registered worker.
//
// Lifecycle:
//
//	Idle --Run--> Accepting --Stop--> Draining --workers joined--> Stopped
//	Idle --Stop--> Draining --> Stopped (Run now returns ErrServerStopped)
//
// There are no timeouts and no connection ceiling. A peer that never
// finishes its request keeps its worker, and therefore Stop, waiting.
//
// Example:
//
//	srv, err := server.New(server.Config{Port: 8080}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	...
//	srv.Stop()
package server

// Package http1 implements the tiny slice of HTTP/1.1 that hellod speaks.
//
// A request is read until the header terminator, the peer closing the
// connection, or a read error. Only the first request line is interpreted;
// headers and bodies are ignored. The response is one of two fixed HTML
// documents chosen by method: GET gets 200, everything else gets 405.
// Every response carries Connection: close.
package http1

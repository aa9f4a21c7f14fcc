package http1

import (
	"io"
	"strconv"
)

const (
	// HelloBody is sent with 200 OK.
	HelloBody = "<html><body><h1>Hello, World!</h1></body></html>"
	// MethodNotAllowedBody is sent with 405 Method Not Allowed.
	MethodNotAllowedBody = "<html><body><h1>405 Method Not Allowed</h1></body></html>"

	StatusOK               = 200
	StatusMethodNotAllowed = 405
)

// Response is a complete fixed response.
type Response struct {
	StatusCode int
	Reason     string
	Body       string
}

// ResponseFor picks the response for a request method. Only the exact
// token "GET" is accepted.
func ResponseFor(method string) Response {
	if method == "GET" {
		return Response{StatusCode: StatusOK, Reason: "OK", Body: HelloBody}
	}
	return Response{StatusCode: StatusMethodNotAllowed, Reason: "Method Not Allowed", Body: MethodNotAllowedBody}
}

// StatusLine returns the status line without its CRLF.
func (r Response) StatusLine() string {
	return "HTTP/1.1 " + strconv.Itoa(r.StatusCode) + " " + r.Reason
}

// Bytes formats the full response with CRLF line endings.
func (r Response) Bytes() []byte {
	b := make([]byte, 0, 128+len(r.Body))
	b = append(b, r.StatusLine()...)
	b = append(b, "\r\nContent-Length: "...)
	b = strconv.AppendInt(b, int64(len(r.Body)), 10)
	b = append(b, "\r\nContent-Type: text/html\r\nConnection: close\r\n\r\n"...)
	b = append(b, r.Body...)
	return b
}

// WriteTo writes the full response in a single Write call.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	b := r.Bytes()
	n, err := w.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

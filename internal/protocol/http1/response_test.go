package http1

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseFor(t *testing.T) {
	tests := []struct {
		method string
		status int
		body   string
	}{
		{"GET", 200, HelloBody},
		{"POST", 405, MethodNotAllowedBody},
		{"HEAD", 405, MethodNotAllowedBody},
		{"get", 405, MethodNotAllowedBody},
		{"GETX", 405, MethodNotAllowedBody},
		{"", 405, MethodNotAllowedBody},
	}

	for _, tt := range tests {
		t.Run("method="+tt.method, func(t *testing.T) {
			resp := ResponseFor(tt.method)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.body, resp.Body)
		})
	}
}

func TestResponseBytes(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		want := "HTTP/1.1 200 OK\r\n" +
			"Content-Length: 49\r\n" +
			"Content-Type: text/html\r\n" +
			"Connection: close\r\n" +
			"\r\n" +
			"<html><body><h1>Hello, World!</h1></body></html>"
		assert.Equal(t, want, string(ResponseFor("GET").Bytes()))
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		got := string(ResponseFor("DELETE").Bytes())
		assert.True(t, strings.HasPrefix(got, "HTTP/1.1 405 Method Not Allowed\r\n"))
		assert.True(t, strings.HasSuffix(got, "\r\n\r\n"+MethodNotAllowedBody))
	})

	t.Run("ContentLengthMatchesBody", func(t *testing.T) {
		for _, method := range []string{"GET", "PUT"} {
			raw := string(ResponseFor(method).Bytes())
			head, body, found := strings.Cut(raw, "\r\n\r\n")
			require.True(t, found)

			var length string
			for _, line := range strings.Split(head, "\r\n") {
				if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
					length = v
				}
			}
			n, err := strconv.Atoi(length)
			require.NoError(t, err)
			assert.Equal(t, len(body), n, "method %s", method)
		}
	})
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestResponseWriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := ResponseFor("GET").WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	_, err = ResponseFor("GET").WriteTo(shortWriter{})
	assert.ErrorIs(t, err, io.ErrShortWrite)

	_, err = ResponseFor("GET").WriteTo(failWriter{})
	assert.EqualError(t, err, "broken pipe")
}

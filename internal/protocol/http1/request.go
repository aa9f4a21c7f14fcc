package http1

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// HeaderTerminator ends the request headers.
const HeaderTerminator = "\r\n\r\n"

var headerTerminator = []byte(HeaderTerminator)

// ReadResult describes why ReadRequest stopped.
type ReadResult int

const (
	// Terminated means the header terminator was seen.
	Terminated ReadResult = iota
	// PeerClosed means the peer closed before sending the terminator.
	PeerClosed
	// ReadFailed means a read returned an error other than EOF.
	ReadFailed
)

func (r ReadResult) String() string {
	switch r {
	case Terminated:
		return "terminated"
	case PeerClosed:
		return "peer-closed"
	case ReadFailed:
		return "read-failed"
	default:
		return "unknown"
	}
}

// ReadRequest accumulates bytes from r until the header terminator appears
// anywhere in the accumulated data, r reports EOF, or a read fails.
//
// The returned error is non-nil only for ReadFailed. There is no size cap
// and no deadline: a peer that never terminates and never closes keeps
// ReadRequest blocked.
func ReadRequest(r io.Reader) ([]byte, ReadResult, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	var request []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			// Only the tail can complete a terminator that was not there before.
			from := len(request) - (len(headerTerminator) - 1)
			if from < 0 {
				from = 0
			}
			request = append(request, buf[:n]...)
			if bytes.Contains(request[from:], headerTerminator) {
				return request, Terminated, nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return request, PeerClosed, nil
			}
			return request, ReadFailed, err
		}

		if n == 0 {
			// A zero-length read without error is treated as the peer closing.
			return request, PeerClosed, nil
		}
	}
}

// RequestLine holds the whitespace-separated tokens of the first line.
// Missing tokens are empty strings.
type RequestLine struct {
	Method  string
	Target  string
	Version string
}

// ParseRequestLine splits the first line of raw into method, target and
// version. It never fails: anything it cannot find is left empty and extra
// tokens are ignored.
func ParseRequestLine(raw []byte) RequestLine {
	line := raw
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	fields := strings.Fields(string(line))

	var rl RequestLine
	if len(fields) > 0 {
		rl.Method = fields[0]
	}
	if len(fields) > 1 {
		rl.Target = fields[1]
	}
	if len(fields) > 2 {
		rl.Version = fields[2]
	}
	return rl
}

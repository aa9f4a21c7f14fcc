package http1

import "sync"

// ReadBufferSize is the size of a single read from the connection.
const ReadBufferSize = 4 << 10 // 4KB

// readPool holds the fixed-size scratch buffers workers read into.
// Request bytes are copied out into the accumulating request buffer, so a
// scratch buffer never escapes a single read.
var readPool = sync.Pool{
	New: func() any {
		buf := make([]byte, ReadBufferSize)
		return &buf
	},
}

// GetBuffer returns a ReadBufferSize scratch buffer.
//
// Usage:
//
//	buf := GetBuffer()
//	defer PutBuffer(buf)
func GetBuffer() []byte {
	return *(readPool.Get().(*[]byte))
}

// PutBuffer returns a buffer obtained from GetBuffer to the pool.
// Buffers of any other capacity are dropped and left to the GC.
func PutBuffer(buf []byte) {
	if cap(buf) != ReadBufferSize {
		return
	}
	full := buf[:ReadBufferSize]
	readPool.Put(&full)
}

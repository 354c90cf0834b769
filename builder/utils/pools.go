package utils

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// maxPooledBuf caps what we hand back to the pools. A post that ballooned a
// buffer past this is an outlier; holding onto its memory for the rest of
// the build costs more than the allocation it would save.
const maxPooledBuf = 64 * 1024

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// GetBuffer returns a scratch buffer. Pair it with PutBuffer.
func GetBuffer() *bytes.Buffer {
	return bufPool.Get().(*bytes.Buffer)
}

// PutBuffer resets buf and returns it to the pool. Oversized buffers are
// dropped on the floor instead.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuf {
		return
	}
	buf.Reset()
	bufPool.Put(buf)
}

var writerPool sync.Pool

// GetWriter returns a pooled bufio.Writer aimed at w.
func GetWriter(w io.Writer) *bufio.Writer {
	if v := writerPool.Get(); v != nil {
		bw := v.(*bufio.Writer)
		bw.Reset(w)
		return bw
	}
	return bufio.NewWriterSize(w, maxPooledBuf)
}

// PutWriter recycles bw. Callers must Flush first; PutWriter detaches the
// writer so a late write cannot reach the old destination.
func PutWriter(bw *bufio.Writer) {
	if bw == nil {
		return
	}
	bw.Reset(io.Discard)
	writerPool.Put(bw)
}

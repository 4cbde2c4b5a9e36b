package tinyhttpd

import "sync"

// bufferPool recycles the one buffer size that matters on the hot path: a
// Content-Length-indicated body small enough to read inline (§4.3 rule 2).
// A single size class is enough since every inline read is capped at
// limits.ContentBufferSize by construction.
type bufferPool struct {
	size int
	pool sync.Pool
}

func newBufferPool(size int) *bufferPool {
	bp := &bufferPool{size: size}
	bp.pool.New = func() interface{} {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Get returns a buffer of exactly n bytes, n <= size.
func (bp *bufferPool) Get(n int64) []byte {
	bufPtr := bp.pool.Get().(*[]byte)
	return (*bufPtr)[:n]
}

// Put returns buf to the pool. Buffers with a smaller capacity than size
// (there are none on the current call path, but future callers may pass
// one) are simply discarded rather than pooled.
func (bp *bufferPool) Put(buf []byte) {
	if cap(buf) < bp.size {
		return
	}
	buf = buf[:bp.size]
	bp.pool.Put(&buf)
}

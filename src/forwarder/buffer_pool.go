package forwarder

import "github.com/valyala/bytebufferpool"

// DefaultBufferSize is the calibrated size of buffers handed out by
// BufferPool. It is a compile-time constant per spec.md §9's "buffer pool
// retention policy" note.
const DefaultBufferSize = 64 * 1024

// BufferPool is a process-wide, thread-safe pool of fixed-size byte buffers
// used by StreamCopier to move bytes between an inbound and an outbound
// stream without a per-copy allocation. It is backed by
// github.com/valyala/bytebufferpool rather than a hand-rolled sync.Pool
// wrapper, since the pack's own web stack (the echo-based vulners-proxy-go
// dependency surface) already pulls that library in for exactly this job.
type BufferPool struct {
	size int
	pool bytebufferpool.Pool
}

// NewBufferPool returns a BufferPool that hands out buffers of size bytes.
// A size of zero selects DefaultBufferSize.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &BufferPool{size: size}
}

// Get returns a buffer sized to the pool's configured size. The returned
// slice's length is always p.size; callers read/write into it directly.
func (p *BufferPool) Get() []byte {
	buf := p.pool.Get()
	if cap(buf.B) < p.size {
		buf.B = make([]byte, p.size)
	} else {
		buf.B = buf.B[:p.size]
	}
	return buf.B
}

// Put returns a buffer to the pool. Per spec.md §4.1.3, StreamCopier only
// calls this between iterations when the most recent read did not fill the
// buffer completely; a full read suggests another is likely ready and the
// buffer is kept for the next iteration instead.
func (p *BufferPool) Put(buf []byte) {
	p.pool.Put(&bytebufferpool.ByteBuffer{B: buf})
}

package server

import "sync"

// BufferPool hands out fixed-size read buffers. Every buffer from one pool
// has the same length, so a single read can never exceed it.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a pool of size-byte buffers
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	bp := &BufferPool{size: size}
	bp.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Get returns a buffer of exactly Size bytes
func (bp *BufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool. Buffers of a foreign size are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != bp.size {
		return
	}
	bp.pool.Put(buf)
}

func (bp *BufferPool) Size() int {
	return bp.size
}

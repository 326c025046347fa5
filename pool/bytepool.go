// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool recycles fixed-size byte buffers.
type BytePool struct {
	size int
	p    sync.Pool
}

// NewBytePool returns a pool handing out buffers of the given size.
func NewBytePool(size int) *BytePool {
	bp := &BytePool{size: size}
	bp.p.New = func() any {
		return make([]byte, size)
	}
	return bp
}

// Size returns the length of buffers handed out by Get.
func (b *BytePool) Size() int {
	return b.size
}

// Get returns a buffer of exactly Size bytes.
func (b *BytePool) Get() []byte {
	return b.p.Get().([]byte)
}

// Put returns a buffer to the pool. Buffers of a different capacity
// are dropped and left to the GC.
func (b *BytePool) Put(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	b.p.Put(buf[:b.size])
}

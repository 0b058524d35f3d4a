package buffer

import "sync"

// Pool limits to prevent memory bloat
const poolMaxCap = 1 << 20

var bufferPool = sync.Pool{
	New: func() any {
		return New(DefaultSize)
	},
}

// Get returns an empty Buffer from the pool.
func Get() *Buffer {
	return bufferPool.Get().(*Buffer)
}

// Put returns b to the pool. b must not be used afterwards.
func Put(b *Buffer) {
	if b == nil || b.Cap() > poolMaxCap {
		return // reject oversized
	}
	b.Reset()
	bufferPool.Put(b)
}

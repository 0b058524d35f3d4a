package buffer

import (
	"encoding/binary"
	"io"
)

// DefaultSize is the initial capacity of buffers handed out by New(0) and Get.
const DefaultSize = 256

// Buffer is an append-only growable byte buffer.
// The write position is always Len(); bytes are never rewritten.
type Buffer struct {
	buf []byte
}

// New creates a Buffer with the given initial capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultSize
	}
	return &Buffer{buf: make([]byte, 0, capacity)}
}

// Wrap creates a Buffer that appends to dst.
func Wrap(dst []byte) *Buffer {
	return &Buffer{buf: dst}
}

// Bytes returns the written bytes. The slice aliases the buffer until the next write.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset discards the contents and keeps the storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Grow ensures at least n more bytes can be written without reallocating.
func (b *Buffer) Grow(n int) {
	if n <= cap(b.buf)-len(b.buf) {
		return
	}
	newCap := 2*cap(b.buf) + n
	grown := make([]byte, len(b.buf), newCap)
	copy(grown, b.buf)
	b.buf = grown
}

// Reserve appends n bytes and returns them for the caller to fill.
// Used for bulk copies of fixed-layout data.
func (b *Buffer) Reserve(n int) []byte {
	b.Grow(n)
	start := len(b.buf)
	b.buf = b.buf[:start+n]
	return b.buf[start : start+n : start+n]
}

// WriteByte appends a single byte. It never fails.
func (b *Buffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteString appends s. It never fails.
func (b *Buffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// WriteInt32 appends v as 4 little-endian bytes.
func (b *Buffer) WriteInt32(v int32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(v))
}

// WriteTo writes the contents to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf)
	return int64(n), err
}

package buffer

import (
	"encoding/binary"

	"github.com/wippyai/binpack/errors"
)

// Cursor reads from a fixed byte range with position tracking.
// Reads past the end fail with a truncated-input error; the cursor never panics.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor creates a Cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Reset points the cursor at data and rewinds it.
func (c *Cursor) Reset(data []byte) {
	c.data = data
	c.pos = 0
}

// Position returns the current byte position.
func (c *Cursor) Position() int {
	return c.pos
}

// Len returns the total length of the underlying range.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// ReadByte reads a single byte and advances the position.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, errors.Truncated(1, 0)
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// ReadInt32 reads a 4-byte little-endian signed integer.
func (c *Cursor) ReadInt32() (int32, error) {
	p, err := c.Next(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(p)), nil
}

// Next returns the next n bytes and advances past them.
// The returned slice aliases the cursor's data.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || n > len(c.data)-c.pos {
		return nil, errors.Truncated(n, c.Remaining())
	}
	p := c.data[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return p, nil
}

// ReadFull copies len(dst) bytes into dst.
func (c *Cursor) ReadFull(dst []byte) error {
	p, err := c.Next(len(dst))
	if err != nil {
		return err
	}
	copy(dst, p)
	return nil
}

// Package buffer provides the byte plumbing codecs write to and read from.
//
// Buffer is an append-only growable byte sequence; Cursor is a bounded
// read view with a position. Both are single-owner: use one per goroutine
// or synchronize externally.
//
//	buf := buffer.Get()
//	defer buffer.Put(buf)
//	buf.WriteInt32(-1)
//
//	cur := buffer.NewCursor(buf.Bytes())
//	n, err := cur.ReadInt32() // -1, nil
//
// Integers written by the buffer itself (length prefixes) are always
// little-endian.
package buffer

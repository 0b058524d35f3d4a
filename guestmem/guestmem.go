package guestmem

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec"
	"github.com/wippyai/binpack/errors"
)

// Store encodes v into guest memory at base and returns the encoded length.
func Store[T any](mem api.Memory, base uint32, v T) (uint32, error) {
	c, err := codec.For[T](codec.Default())
	if err != nil {
		return 0, err
	}
	b := buffer.Get()
	defer buffer.Put(b)
	if err := c.Encode(b, v); err != nil {
		return 0, err
	}
	w := NewWriter(mem, base)
	if _, err := b.WriteTo(w); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// StoreAlloc encodes v into a block obtained from alloc and returns its range.
func StoreAlloc[T any](ctx context.Context, mem api.Memory, alloc Allocator, v T) (ptr, length uint32, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, errors.IO("store cancelled", err)
	}
	c, err := codec.For[T](codec.Default())
	if err != nil {
		return 0, 0, err
	}
	b := buffer.Get()
	defer buffer.Put(b)
	if err := c.Encode(b, v); err != nil {
		return 0, 0, err
	}
	if uint64(b.Len()) > math.MaxUint32 {
		return 0, 0, errors.Overflow(errors.PhaseIO, nil, b.Len(), "32-bit guest address space")
	}

	size := uint32(b.Len())
	ptr, err = alloc.Alloc(size, 1)
	if err != nil {
		return 0, 0, err
	}
	if !mem.Write(ptr, b.Bytes()) {
		return 0, 0, errors.New(errors.PhaseIO, errors.KindIO).
			Detail("allocated block [%d, %d) outside guest memory", ptr, uint64(ptr)+uint64(size)).
			Build()
	}
	return ptr, size, nil
}

// Load decodes a value of type T from guest memory [ptr, ptr+length).
// The decoded value does not alias guest memory.
func Load[T any](mem api.Memory, ptr, length uint32) (T, error) {
	var zero T
	c, err := codec.For[T](codec.Default())
	if err != nil {
		return zero, err
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		return zero, errors.New(errors.PhaseIO, errors.KindIO).
			Detail("range [%d, %d) outside guest memory of %d bytes", ptr, uint64(ptr)+uint64(length), mem.Size()).
			Build()
	}
	return c.Unmarshal(data)
}

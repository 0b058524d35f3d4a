package guestmem

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/binpack/errors"
)

// Allocator reserves guest memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
}

// ReallocAllocator allocates through a guest export with the canonical
// realloc signature (old_ptr, old_size, align, new_size) -> ptr.
type ReallocAllocator struct {
	ctx      context.Context
	fn       api.Function
	stackBuf [4]uint64
}

// NewReallocAllocator wraps fn, typically the guest's "cabi_realloc" export.
func NewReallocAllocator(ctx context.Context, fn api.Function) *ReallocAllocator {
	return &ReallocAllocator{ctx: ctx, fn: fn}
}

func (a *ReallocAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.fn == nil {
		return 0, errors.IO("no guest allocator available", nil)
	}
	a.stackBuf[0] = 0 // oldPtr
	a.stackBuf[1] = 0 // oldSize
	a.stackBuf[2] = uint64(align)
	a.stackBuf[3] = uint64(size)
	if err := a.fn.CallWithStack(a.ctx, a.stackBuf[:]); err != nil {
		return 0, errors.IO("guest allocation failed", err)
	}
	return uint32(a.stackBuf[0]), nil
}

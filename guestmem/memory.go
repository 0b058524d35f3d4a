package guestmem

import (
	"io"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/binpack/errors"
)

// PageSize is the size of a WebAssembly memory page.
const PageSize = 65536

// Writer appends bytes to guest memory starting at a fixed base offset.
type Writer struct {
	mem  api.Memory
	base uint32
	n    uint32
}

// NewWriter returns a Writer that writes to mem from base onwards.
func NewWriter(mem api.Memory, base uint32) *Writer {
	return &Writer{mem: mem, base: base}
}

// Len returns the number of bytes written.
func (w *Writer) Len() uint32 {
	return w.n
}

// Span returns the guest range written so far.
func (w *Writer) Span() (ptr, length uint32) {
	return w.base, w.n
}

// Write copies p into guest memory, growing the memory when it is too small.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	start := uint64(w.base) + uint64(w.n)
	end := start + uint64(len(p))
	if end > math.MaxUint32 {
		return 0, errors.Overflow(errors.PhaseIO, nil, end, "32-bit guest address space")
	}
	if err := ensure(w.mem, end); err != nil {
		return 0, err
	}
	if !w.mem.Write(uint32(start), p) {
		return 0, errors.IO("write guest memory", nil)
	}
	w.n += uint32(len(p))
	return len(p), nil
}

// ensure grows mem until it holds at least size bytes.
func ensure(mem api.Memory, size uint64) error {
	have := uint64(mem.Size())
	if size <= have {
		return nil
	}
	pages := (size - have + PageSize - 1) / PageSize
	if _, ok := mem.Grow(uint32(pages)); !ok {
		return errors.New(errors.PhaseIO, errors.KindOverflow).
			Value(pages).
			Detail("cannot grow guest memory by %d pages from %d bytes", pages, have).
			Build()
	}
	return nil
}

// Reader reads a fixed range of guest memory.
type Reader struct {
	mem api.Memory
	ptr uint32
	end uint32
}

// NewReader returns a Reader over [ptr, ptr+length).
func NewReader(mem api.Memory, ptr, length uint32) (*Reader, error) {
	end := uint64(ptr) + uint64(length)
	if end > uint64(mem.Size()) {
		return nil, errors.New(errors.PhaseIO, errors.KindIO).
			Value(end).
			Detail("range [%d, %d) outside guest memory of %d bytes", ptr, end, mem.Size()).
			Build()
	}
	return &Reader{mem: mem, ptr: ptr, end: uint32(end)}, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() uint32 {
	return r.end - r.ptr
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.ptr >= r.end {
		return 0, io.EOF
	}
	n := uint32(len(p))
	if rem := r.end - r.ptr; n > rem {
		n = rem
	}
	src, ok := r.mem.Read(r.ptr, n)
	if !ok {
		return 0, errors.IO("read guest memory", nil)
	}
	copy(p, src)
	r.ptr += n
	return int(n), nil
}

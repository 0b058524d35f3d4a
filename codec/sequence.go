package codec

import (
	"math"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/shape"
	"github.com/wippyai/binpack/codec/internal/wire"
	"github.com/wippyai/binpack/errors"
)

// sliceHeader mirrors the runtime layout of a slice.
type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

// sequenceCodec handles []E and fixed-length [N]E arrays of non-unmanaged E.
// Sequences of unmanaged elements are copied as one contiguous block.
type sequenceCodec struct {
	typ      reflect.Type
	elemType reflect.Type
	elem     Codec
	elemSize int
	fixed    int // array length, -1 for slices
	maxLen   int
	bulk     bool
	bools    []uintptr // bool offsets within a bulk element
}

func newSequenceCodec(t reflect.Type, info shape.Info, elem Codec, maxLen int) *sequenceCodec {
	s := &sequenceCodec{
		typ:      t,
		elemType: info.Elem,
		elem:     elem,
		elemSize: int(info.Elem.Size()),
		fixed:    info.Fixed,
		maxLen:   maxLen,
		bulk:     shape.IsUnmanaged(info.Elem),
	}
	if s.bulk {
		s.bools = shape.BoolOffsets(info.Elem)
	}
	return s
}

func (s *sequenceCodec) Type() reflect.Type { return s.typ }
func (s *sequenceCodec) Shape() Shape       { return ShapeSequence }
func (s *sequenceCodec) minSize() int       { return wire.PrefixSize }

func (s *sequenceCodec) String() string {
	if s.fixed >= 0 {
		return "sequence[" + strconv.Itoa(s.fixed) + "]<" + s.elem.String() + ">"
	}
	return "sequence<" + s.elem.String() + ">"
}

func (s *sequenceCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	var data unsafe.Pointer
	var n int
	if s.fixed >= 0 {
		data, n = p, s.fixed
	} else {
		hdr := (*sliceHeader)(p)
		if hdr.Data == nil {
			b.WriteInt32(wire.Absent)
			return nil
		}
		data, n = hdr.Data, hdr.Len
	}
	return s.encodeElems(b, data, n)
}

// encodeElems writes the count and n elements starting at data.
func (s *sequenceCodec) encodeElems(b *buffer.Buffer, data unsafe.Pointer, n int) error {
	if n > math.MaxInt32 {
		return errors.Overflow(errors.PhaseEncode, nil, n, "int32 length prefix")
	}
	b.WriteInt32(int32(n))
	if n == 0 {
		return nil
	}

	if s.bulk {
		size := n * s.elemSize
		if size > 0 {
			copy(b.Reserve(size), unsafe.Slice((*byte)(data), size))
		}
		return nil
	}

	for i := 0; i < n; i++ {
		if err := s.elem.encode(b, unsafe.Add(data, i*s.elemSize)); err != nil {
			return withPath(err, "["+strconv.Itoa(i)+"]")
		}
	}
	return nil
}

func (s *sequenceCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	n, err := c.ReadInt32()
	if err != nil {
		return err
	}

	if s.fixed >= 0 {
		if int(n) != s.fixed {
			if n < 0 {
				return errors.MalformedLength(nil, n)
			}
			return errors.InvalidData(errors.PhaseDecode, nil,
				"array length "+strconv.Itoa(int(n))+" does not match "+s.typ.String())
		}
		return s.decodeElems(c, p, s.fixed)
	}

	switch {
	case n == wire.Absent:
		*(*sliceHeader)(p) = sliceHeader{}
		return nil
	case n < 0:
		return errors.MalformedLength(nil, n)
	}
	if err := checkCount(c, int(n), s.elem.minSize(), s.elemSize, s.maxLen); err != nil {
		return err
	}

	v := reflect.MakeSlice(s.typ, int(n), int(n))
	if err := s.decodeElems(c, v.UnsafePointer(), int(n)); err != nil {
		return err
	}
	reflect.NewAt(s.typ, p).Elem().Set(v)
	return nil
}

// decodeElems fills n zeroed elements starting at data.
func (s *sequenceCodec) decodeElems(c *buffer.Cursor, data unsafe.Pointer, n int) error {
	if n == 0 {
		return nil
	}

	if s.bulk {
		size, ok := wire.MulInt(n, s.elemSize)
		if !ok {
			return errors.Overflow(errors.PhaseDecode, nil, n, "addressable memory")
		}
		src, err := c.Next(size)
		if err != nil {
			return err
		}
		if len(s.bools) > 0 {
			for i := 0; i < n; i++ {
				if err := checkBools(src[i*s.elemSize:], s.bools); err != nil {
					return withPath(err, "["+strconv.Itoa(i)+"]")
				}
			}
		}
		if size > 0 {
			copy(unsafe.Slice((*byte)(data), size), src)
		}
		return nil
	}

	for i := 0; i < n; i++ {
		if err := s.elem.decode(c, unsafe.Add(data, i*s.elemSize)); err != nil {
			return withPath(err, "["+strconv.Itoa(i)+"]")
		}
	}
	return nil
}

// checkCount rejects counts that exceed the configured limit or that the
// remaining input cannot possibly hold, before anything is allocated.
// Elements that occupy no input bytes are instead limited by the memory
// they would take: n*elemSize may not exceed maxLen bytes.
func checkCount(c *buffer.Cursor, n, minElem, elemSize, maxLen int) error {
	if n > maxLen {
		return errors.Overflow(errors.PhaseDecode, nil, n, "maximum length "+strconv.Itoa(maxLen))
	}
	if minElem > 0 {
		need, ok := wire.MulInt(n, minElem)
		if !ok || need > c.Remaining() {
			return errors.Truncated(need, c.Remaining())
		}
		return nil
	}
	if size, ok := wire.MulInt(n, elemSize); !ok || size > maxLen {
		return errors.Overflow(errors.PhaseDecode, nil, n,
			"maximum length "+strconv.Itoa(maxLen)+" bytes for elements without encoded data")
	}
	return nil
}

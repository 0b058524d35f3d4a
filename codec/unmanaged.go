package codec

import (
	"reflect"
	"strconv"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/shape"
	"github.com/wippyai/binpack/errors"
)

// unmanagedCodec copies the value's memory verbatim.
type unmanagedCodec struct {
	typ   reflect.Type
	bools []uintptr
	size  int
}

func newUnmanagedCodec(t reflect.Type) *unmanagedCodec {
	return &unmanagedCodec{typ: t, size: int(t.Size()), bools: shape.BoolOffsets(t)}
}

func (u *unmanagedCodec) Type() reflect.Type { return u.typ }
func (u *unmanagedCodec) Shape() Shape       { return ShapeUnmanaged }
func (u *unmanagedCodec) minSize() int       { return u.size }

func (u *unmanagedCodec) String() string {
	return "unmanaged(" + typeName(u.typ) + ")"
}

func (u *unmanagedCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	if u.size == 0 {
		return nil
	}
	copy(b.Reserve(u.size), unsafe.Slice((*byte)(p), u.size))
	return nil
}

func (u *unmanagedCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	src, err := c.Next(u.size)
	if err != nil {
		return err
	}
	if err := checkBools(src, u.bools); err != nil {
		return err
	}
	if u.size > 0 {
		copy(unsafe.Slice((*byte)(p), u.size), src)
	}
	return nil
}

// checkBools rejects raw bytes that would put a value other than 0 or 1
// into a bool.
func checkBools(src []byte, offsets []uintptr) error {
	for _, off := range offsets {
		if b := src[off]; b > 1 {
			return errors.InvalidData(errors.PhaseDecode, nil,
				"bool byte "+strconv.Itoa(int(b))+" at offset "+strconv.Itoa(int(off)))
		}
	}
	return nil
}

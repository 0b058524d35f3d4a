package codec

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/wire"
	"github.com/wippyai/binpack/errors"
)

// optionalCodec handles *E: a presence byte, then E when present.
type optionalCodec struct {
	typ      reflect.Type
	elemType reflect.Type
	elem     Codec
}

func (o *optionalCodec) Type() reflect.Type { return o.typ }
func (o *optionalCodec) Shape() Shape       { return ShapeOptional }
func (o *optionalCodec) minSize() int       { return 1 }

func (o *optionalCodec) String() string {
	return "optional<" + o.elem.String() + ">"
}

func (o *optionalCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	ep := *(*unsafe.Pointer)(p)
	if ep == nil {
		return b.WriteByte(wire.FlagAbsent)
	}
	_ = b.WriteByte(wire.FlagPresent)
	if err := o.elem.encode(b, ep); err != nil {
		return withPath(err, "*")
	}
	return nil
}

func (o *optionalCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	present, err := readFlag(c)
	if err != nil {
		return err
	}
	if !present {
		*(*unsafe.Pointer)(p) = nil
		return nil
	}

	v := reflect.New(o.elemType)
	if err := o.elem.decode(c, v.UnsafePointer()); err != nil {
		return withPath(err, "*")
	}
	*(*unsafe.Pointer)(p) = v.UnsafePointer()
	return nil
}

func readFlag(c *buffer.Cursor) (bool, error) {
	flag, err := c.ReadByte()
	if err != nil {
		return false, err
	}
	switch flag {
	case wire.FlagAbsent:
		return false, nil
	case wire.FlagPresent:
		return true, nil
	default:
		return false, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(flag).
			Detail("invalid presence flag %#x", flag).
			Build()
	}
}

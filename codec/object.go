package codec

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/wire"
)

type objectField struct {
	codec  Codec
	name   string
	offset uintptr
}

// objectCodec writes a struct's exported fields in declaration order.
// The reference form (*S) is preceded by a null indicator byte; the value
// form (S) is not.
type objectCodec struct {
	typ        reflect.Type
	structType reflect.Type
	fields     []objectField
	nullable   bool
}

func (o *objectCodec) Type() reflect.Type { return o.typ }
func (o *objectCodec) Shape() Shape       { return ShapeObject }

func (o *objectCodec) String() string {
	return "object(" + typeName(o.typ) + ")"
}

func (o *objectCodec) minSize() int {
	if o.nullable {
		return 1
	}
	n := 0
	for _, f := range o.fields {
		n += f.codec.minSize()
	}
	return n
}

func (o *objectCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	base := p
	if o.nullable {
		base = *(*unsafe.Pointer)(p)
		if base == nil {
			return b.WriteByte(wire.FlagAbsent)
		}
		_ = b.WriteByte(wire.FlagPresent)
	}

	for i := range o.fields {
		f := &o.fields[i]
		if err := f.codec.encode(b, unsafe.Add(base, f.offset)); err != nil {
			return withPath(err, f.name)
		}
	}
	return nil
}

func (o *objectCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	if !o.nullable {
		return o.decodeFields(c, p)
	}

	present, err := readFlag(c)
	if err != nil {
		return err
	}
	if !present {
		*(*unsafe.Pointer)(p) = nil
		return nil
	}

	v := reflect.New(o.structType)
	if err := o.decodeFields(c, v.UnsafePointer()); err != nil {
		return err
	}
	*(*unsafe.Pointer)(p) = v.UnsafePointer()
	return nil
}

func (o *objectCodec) decodeFields(c *buffer.Cursor, base unsafe.Pointer) error {
	for i := range o.fields {
		f := &o.fields[i]
		if err := f.codec.decode(c, unsafe.Add(base, f.offset)); err != nil {
			return withPath(err, f.name)
		}
	}
	return nil
}

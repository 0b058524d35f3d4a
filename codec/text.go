package codec

import (
	"math"
	"reflect"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/wire"
	"github.com/wippyai/binpack/errors"
)

// textCodec writes a byte-count prefix followed by the UTF-8 bytes.
// The nullable form handles *string, where nil is written as the absent prefix.
type textCodec struct {
	typ      reflect.Type
	nullable bool
	validate bool
}

func (t *textCodec) Type() reflect.Type { return t.typ }
func (t *textCodec) Shape() Shape       { return ShapeText }
func (t *textCodec) minSize() int       { return wire.PrefixSize }

func (t *textCodec) String() string {
	return "text(" + typeName(t.typ) + ")"
}

func (t *textCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	var s string
	if t.nullable {
		sp := *(**string)(p)
		if sp == nil {
			b.WriteInt32(wire.Absent)
			return nil
		}
		s = *sp
	} else {
		s = *(*string)(p)
	}

	if len(s) > math.MaxInt32 {
		return errors.Overflow(errors.PhaseEncode, nil, len(s), "int32 length prefix")
	}
	b.WriteInt32(int32(len(s)))
	_, _ = b.WriteString(s)
	return nil
}

func (t *textCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	n, err := c.ReadInt32()
	if err != nil {
		return err
	}
	if n == wire.Absent && t.nullable {
		*(**string)(p) = nil
		return nil
	}
	if n < 0 {
		return errors.MalformedLength(nil, n)
	}

	data, err := c.Next(int(n))
	if err != nil {
		return err
	}
	if t.validate && !utf8.Valid(data) {
		return errors.InvalidUTF8(nil, data)
	}

	s := string(data)
	if t.nullable {
		*(**string)(p) = &s
	} else {
		*(*string)(p) = s
	}
	return nil
}

package codec

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/shape"
)

// forward stands in for a codec whose build is still in progress when a
// recursive type refers back to it. target is set exactly once, when the
// owning build finishes and before any codec of the session is published.
type forward struct {
	target Codec
	typ    reflect.Type
	kind   shape.Kind
}

func (f *forward) Type() reflect.Type { return f.typ }
func (f *forward) Shape() Shape       { return f.kind }

func (f *forward) String() string {
	return f.kind.String() + "(" + typeName(f.typ) + ")"
}

func (f *forward) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	return f.target.encode(b, p)
}

func (f *forward) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	return f.target.decode(c, p)
}

func (f *forward) minSize() int {
	return f.target.minSize()
}

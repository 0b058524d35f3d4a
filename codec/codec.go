package codec

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/shape"
	"github.com/wippyai/binpack/errors"
)

// Shape is the encoding category of a codec.
type Shape = shape.Kind

const (
	ShapeUnmanaged = shape.Unmanaged
	ShapeText      = shape.Text
	ShapeOptional  = shape.Optional
	ShapeSequence  = shape.Sequence
	ShapeIterable  = shape.Iterable
	ShapeMap       = shape.Map
	ShapeObject    = shape.Object
)

// SlotMap is implemented by map containers encoded in physical slot order.
// See the dense package for the implementation shipped with binpack.
type SlotMap = shape.SlotMap

// Codec encodes and decodes values of exactly one Go type.
// Codecs are immutable once published and safe for concurrent use.
type Codec interface {
	Type() reflect.Type
	Shape() Shape
	String() string

	// encode writes the value stored at p.
	encode(b *buffer.Buffer, p unsafe.Pointer) error
	// decode overwrites the value stored at p.
	decode(c *buffer.Cursor, p unsafe.Pointer) error
	// minSize is the smallest number of bytes an encoded value occupies.
	minSize() int
}

// HostLittleEndian reports whether unmanaged values are laid out little-endian.
// Unmanaged payloads are raw host memory and only portable between hosts
// that agree on it and on GOARCH.
var HostLittleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// Typed binds a codec to its Go type.
type Typed[T any] struct {
	c Codec
}

// For returns the typed codec for T from r.
func For[T any](r *Registry) (Typed[T], error) {
	c, err := r.Codec(reflect.TypeFor[T]())
	if err != nil {
		return Typed[T]{}, err
	}
	return Typed[T]{c: c}, nil
}

// Must is like For but panics if the codec cannot be built.
func Must[T any](r *Registry) Typed[T] {
	t, err := For[T](r)
	if err != nil {
		panic(err)
	}
	return t
}

// Codec returns the underlying untyped codec.
func (t Typed[T]) Codec() Codec {
	return t.c
}

// Encode appends the encoding of v to b.
func (t Typed[T]) Encode(b *buffer.Buffer, v T) error {
	return t.c.encode(b, unsafe.Pointer(&v))
}

// Decode reads one value from c.
func (t Typed[T]) Decode(c *buffer.Cursor) (T, error) {
	var v T
	if err := t.c.decode(c, unsafe.Pointer(&v)); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Marshal returns the encoding of v as a freshly allocated slice.
func (t Typed[T]) Marshal(v T) ([]byte, error) {
	b := buffer.Get()
	defer buffer.Put(b)
	if err := t.Encode(b, v); err != nil {
		return nil, err
	}
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out, nil
}

// Append appends the encoding of v to dst.
func (t Typed[T]) Append(dst []byte, v T) ([]byte, error) {
	b := buffer.Wrap(dst)
	if err := t.Encode(b, v); err != nil {
		return dst, err
	}
	return b.Bytes(), nil
}

// Unmarshal decodes data, which must hold exactly one encoded value.
func (t Typed[T]) Unmarshal(data []byte) (T, error) {
	c := buffer.NewCursor(data)
	v, err := t.Decode(c)
	if err != nil {
		return v, err
	}
	if err := checkConsumed(c); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func checkConsumed(c *buffer.Cursor) error {
	if n := c.Remaining(); n != 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(n).
			Detail("%d trailing bytes after value", n).
			Build()
	}
	return nil
}

// withPath prefixes the failure location of a nested codec's error.
func withPath(err error, segment string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithPath(segment)
	}
	return err
}

// typeName renders t for error messages and codec descriptions.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

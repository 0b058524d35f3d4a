package binpack

import (
	"io"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec"
	"github.com/wippyai/binpack/errors"
)

// Serialize encodes v into a newly allocated byte slice.
func Serialize[T any](v T) ([]byte, error) {
	c, err := codec.For[T](codec.Default())
	if err != nil {
		return nil, err
	}
	return c.Marshal(v)
}

// Append appends the encoding of v to dst and returns the extended slice.
func Append[T any](dst []byte, v T) ([]byte, error) {
	c, err := codec.For[T](codec.Default())
	if err != nil {
		return dst, err
	}
	return c.Append(dst, v)
}

// SerializeTo encodes v and writes it to w in a single Write call.
func SerializeTo[T any](w io.Writer, v T) error {
	c, err := codec.For[T](codec.Default())
	if err != nil {
		return err
	}
	b := buffer.Get()
	defer buffer.Put(b)
	if err := c.Encode(b, v); err != nil {
		return err
	}
	return flush(w, b)
}

// Deserialize decodes a value of type T. data must hold exactly one value.
func Deserialize[T any](data []byte) (T, error) {
	c, err := codec.For[T](codec.Default())
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Unmarshal(data)
}

// DeserializeFrom reads r to EOF and decodes a value of type T from it.
func DeserializeFrom[T any](r io.Reader) (T, error) {
	data, err := readAll(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return Deserialize[T](data)
}

// Engine serializes values of any type through an explicit codec registry.
// Use it to keep codecs, limits and logging separate from the default registry.
type Engine struct {
	reg *codec.Registry
}

// With returns an Engine bound to reg. A nil reg means codec.Default().
func With(reg *codec.Registry) *Engine {
	if reg == nil {
		reg = codec.Default()
	}
	return &Engine{reg: reg}
}

// ContentType is the media type reported for binpack payloads.
const ContentType = "application/x-binpack"

// ContentType returns the media type of the payloads the engine produces.
func (e *Engine) ContentType() string {
	return ContentType
}

// Registry returns the registry the engine compiles codecs with.
func (e *Engine) Registry() *codec.Registry {
	return e.reg
}

// Marshal encodes v using the codec of its dynamic type.
func (e *Engine) Marshal(v any) ([]byte, error) {
	b := buffer.Get()
	defer buffer.Put(b)
	if err := e.reg.Encode(b, v); err != nil {
		return nil, err
	}
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out, nil
}

// MarshalTo encodes v and writes it to w.
func (e *Engine) MarshalTo(w io.Writer, v any) error {
	b := buffer.Get()
	defer buffer.Put(b)
	if err := e.reg.Encode(b, v); err != nil {
		return err
	}
	return flush(w, b)
}

// Unmarshal decodes data into the value ptr points to.
func (e *Engine) Unmarshal(data []byte, ptr any) error {
	c := buffer.NewCursor(data)
	if err := e.reg.Decode(c, ptr); err != nil {
		return err
	}
	if n := c.Remaining(); n != 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(n).
			Detail("%d trailing bytes after value", n).
			Build()
	}
	return nil
}

// UnmarshalFrom reads r to EOF and decodes it into the value ptr points to.
func (e *Engine) UnmarshalFrom(r io.Reader, ptr any) error {
	data, err := readAll(r)
	if err != nil {
		return err
	}
	return e.Unmarshal(data, ptr)
}

func flush(w io.Writer, b *buffer.Buffer) error {
	n, err := b.WriteTo(w)
	if err != nil {
		return errors.IO("write encoded value", err)
	}
	if int(n) != b.Len() {
		return errors.IO("write encoded value", io.ErrShortWrite)
	}
	return nil
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.IO("read encoded value", err)
	}
	return data, nil
}

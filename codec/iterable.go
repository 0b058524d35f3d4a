package codec

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
)

// iterableCodec handles iterator functions of the form func(yield func(E) bool).
// Encoding drains the iterator once into a slice and writes it as a sequence;
// decoding yields an iterator that replays the decoded elements.
type iterableCodec struct {
	typ       reflect.Type
	sliceType reflect.Type
	seq       Codec
}

func (it *iterableCodec) Type() reflect.Type { return it.typ }
func (it *iterableCodec) Shape() Shape       { return ShapeIterable }
func (it *iterableCodec) minSize() int       { return it.seq.minSize() }

func (it *iterableCodec) String() string {
	return "iterable<" + typeName(it.sliceType.Elem()) + ">"
}

func (it *iterableCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	fn := reflect.NewAt(it.typ, p).Elem()
	tmp := reflect.New(it.sliceType)
	if !fn.IsNil() {
		items := reflect.MakeSlice(it.sliceType, 0, 8)
		for v := range fn.Seq() {
			items = reflect.Append(items, v)
		}
		tmp.Elem().Set(items)
	}
	return it.seq.encode(b, tmp.UnsafePointer())
}

func (it *iterableCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	tmp := reflect.New(it.sliceType)
	if err := it.seq.decode(c, tmp.UnsafePointer()); err != nil {
		return err
	}

	dst := reflect.NewAt(it.typ, p).Elem()
	items := tmp.Elem()
	if items.IsNil() {
		dst.SetZero()
		return nil
	}
	dst.Set(reflect.MakeFunc(it.typ, replay(items)))
	return nil
}

func replay(items reflect.Value) func([]reflect.Value) []reflect.Value {
	return func(args []reflect.Value) []reflect.Value {
		yield := args[0]
		for i := 0; i < items.Len(); i++ {
			if !yield.Call([]reflect.Value{items.Index(i)})[0].Bool() {
				break
			}
		}
		return nil
	}
}

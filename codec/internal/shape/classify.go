package shape

import (
	"reflect"

	"github.com/wippyai/binpack/errors"
)

// TagName is the struct tag consulted for field options.
const TagName = "binpack"

// SlotMap is implemented by map containers that expose their physical slot
// layout to codecs. Implementations must work on a nil or zero receiver for
// KeyType and ValueType.
type SlotMap interface {
	Len() int
	KeyType() reflect.Type
	ValueType() reflect.Type
	// RangeSlots visits live entries in slot order. key and value are addressable.
	RangeSlots(fn func(key, value reflect.Value) bool)
	// Reset empties the container and reserves room for capacity entries.
	Reset(capacity int)
	Insert(key, value reflect.Value)
}

var slotMapType = reflect.TypeFor[SlotMap]()

// Info describes the top level of a classified type.
type Info struct {
	Type reflect.Type
	// Elem is the element type of sequences, optionals and iterables, and the
	// pointed-to struct of a reference-form object or slot map.
	Elem   reflect.Type
	Key    reflect.Type
	Value  reflect.Type
	Fields []Field
	// Fixed is the element count of a fixed-length sequence, -1 otherwise.
	Fixed int
	Kind  Kind
	// Nullable is set for shapes whose Go form can be nil: *string texts,
	// reference-form objects and pointers to slot maps.
	Nullable bool
	// Slot is set for maps backed by a SlotMap implementation.
	Slot bool
}

// Field is one encoded struct field. Fields are listed in declaration order.
type Field struct {
	Type   reflect.Type
	Name   string
	Index  int
	Offset uintptr
}

// Classify determines the shape of t.
func Classify(t reflect.Type) (Info, error) {
	if t == nil {
		return Info{}, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("type cannot be nil").
			Build()
	}

	info := Info{Type: t, Fixed: -1}

	if t.Kind() == reflect.Interface {
		return Info{}, errors.UnsupportedType(nil, t.String(), "interface values cannot be encoded")
	}
	if declaresSlotMap(t) {
		return classifySlotMap(info, t)
	}

	if IsUnmanaged(t) {
		info.Kind = Unmanaged
		return info, nil
	}

	switch t.Kind() {
	case reflect.String:
		info.Kind = Text
		return info, nil

	case reflect.Pointer:
		elem := t.Elem()
		switch {
		case elem.Kind() == reflect.String:
			info.Kind = Text
			info.Nullable = true
		case elem.Kind() == reflect.Struct && !IsUnmanaged(elem):
			fields, err := structFields(elem)
			if err != nil {
				return Info{}, err
			}
			info.Kind = Object
			info.Nullable = true
			info.Elem = elem
			info.Fields = fields
		default:
			info.Kind = Optional
			info.Elem = elem
		}
		return info, nil

	case reflect.Slice:
		info.Kind = Sequence
		info.Elem = t.Elem()
		return info, nil

	case reflect.Array:
		info.Kind = Sequence
		info.Elem = t.Elem()
		info.Fixed = t.Len()
		return info, nil

	case reflect.Map:
		info.Kind = Map
		info.Key = t.Key()
		info.Value = t.Elem()
		return info, nil

	case reflect.Func:
		elem, ok := SeqElem(t)
		if !ok {
			return Info{}, errors.UnsupportedType(nil, t.String(),
				"only iterator functions of the form func(yield func(E) bool) are supported")
		}
		info.Kind = Iterable
		info.Elem = elem
		return info, nil

	case reflect.Struct:
		fields, err := structFields(t)
		if err != nil {
			return Info{}, err
		}
		info.Kind = Object
		info.Fields = fields
		return info, nil

	default:
		return Info{}, errors.UnsupportedType(nil, t.String(), t.Kind().String()+" values cannot be encoded")
	}
}

// declaresSlotMap reports whether t, or the struct t points to, implements
// SlotMap with its own methods. A struct that only gets them by embedding a
// slot map is an ordinary record.
func declaresSlotMap(t reflect.Type) bool {
	st := t
	switch {
	case t.Kind() == reflect.Struct:
		if !t.Implements(slotMapType) && !reflect.PointerTo(t).Implements(slotMapType) {
			return false
		}
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		if !t.Implements(slotMapType) {
			return false
		}
		st = t.Elem()
	default:
		return false
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous {
			continue
		}
		if f.Type.Implements(slotMapType) || reflect.PointerTo(f.Type).Implements(slotMapType) {
			return false
		}
	}
	return true
}

func classifySlotMap(info Info, t reflect.Type) (Info, error) {
	var sm SlotMap
	if t.Kind() == reflect.Pointer {
		sm = reflect.Zero(t).Interface().(SlotMap)
		info.Nullable = true
		info.Elem = t.Elem()
	} else {
		sm = reflect.New(t).Interface().(SlotMap)
		info.Elem = t
	}
	info.Kind = Map
	info.Slot = true
	info.Key = sm.KeyType()
	info.Value = sm.ValueType()
	return info, nil
}

// SeqElem reports whether t has the form func(yield func(E) bool) and returns E.
func SeqElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.IsVariadic() || t.NumIn() != 1 || t.NumOut() != 0 {
		return nil, false
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.IsVariadic() || yield.NumIn() != 1 || yield.NumOut() != 1 {
		return nil, false
	}
	if yield.Out(0).Kind() != reflect.Bool {
		return nil, false
	}
	return yield.In(0), true
}

// structFields lists the exported, non-skipped fields of t.
// A struct with hidden state but nothing exported cannot be rebuilt from a
// zero value and is rejected.
func structFields(t reflect.Type) ([]Field, error) {
	fields := make([]Field, 0, t.NumField())
	hidden := false
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			if f.Name != "_" {
				hidden = true
			}
			continue
		}
		if f.Tag.Get(TagName) == "-" {
			continue
		}
		fields = append(fields, Field{
			Name:   f.Name,
			Index:  i,
			Offset: f.Offset,
			Type:   f.Type,
		})
	}
	if len(fields) == 0 && hidden {
		return nil, errors.Construction(nil, t.String(),
			"struct has unexported state and no exported fields to rebuild it from")
	}
	return fields, nil
}

// IsUnmanaged reports whether t is a fixed-size value with no references
// anywhere in its layout. Such values are encoded as a raw copy of their memory.
func IsUnmanaged(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return IsUnmanaged(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !IsUnmanaged(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// BoolOffsets lists the byte offsets of every bool inside the unmanaged type t.
// Raw decoding checks these bytes, since Go bools must hold 0 or 1.
func BoolOffsets(t reflect.Type) []uintptr {
	return appendBoolOffsets(nil, t, 0)
}

func appendBoolOffsets(dst []uintptr, t reflect.Type, base uintptr) []uintptr {
	switch t.Kind() {
	case reflect.Bool:
		return append(dst, base)
	case reflect.Array:
		if t.Len() == 0 {
			return dst
		}
		inner := appendBoolOffsets(nil, t.Elem(), 0)
		if len(inner) == 0 {
			return dst
		}
		size := t.Elem().Size()
		for i := 0; i < t.Len(); i++ {
			for _, off := range inner {
				dst = append(dst, base+uintptr(i)*size+off)
			}
		}
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			dst = appendBoolOffsets(dst, f.Type, base+f.Offset)
		}
	}
	return dst
}

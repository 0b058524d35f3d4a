package codec

import (
	"bytes"
	"cmp"
	"math"
	"reflect"
	"slices"
	"strconv"
	"unsafe"

	"github.com/wippyai/binpack/buffer"
	"github.com/wippyai/binpack/codec/internal/shape"
	"github.com/wippyai/binpack/codec/internal/wire"
	"github.com/wippyai/binpack/errors"
)

// mapCodec handles built-in maps: a count, then key and value pairs.
// Maps with ordered key kinds are written in ascending key order so that
// equal maps always produce equal bytes.
type mapCodec struct {
	typ      reflect.Type
	keyType  reflect.Type
	valType  reflect.Type
	key      Codec
	val      Codec
	maxLen   int
	mode     MapDecodeMode
	sortKeys bool
}

func newMapCodec(t reflect.Type, info shape.Info, key, val Codec, maxLen int, mode MapDecodeMode) *mapCodec {
	return &mapCodec{
		typ:      t,
		keyType:  info.Key,
		valType:  info.Value,
		key:      key,
		val:      val,
		maxLen:   maxLen,
		mode:     mode,
		sortKeys: orderedKind(info.Key.Kind()),
	}
}

func (m *mapCodec) Type() reflect.Type { return m.typ }
func (m *mapCodec) Shape() Shape       { return ShapeMap }
func (m *mapCodec) minSize() int       { return wire.PrefixSize }

func (m *mapCodec) String() string {
	return "map<" + m.key.String() + ", " + m.val.String() + ">"
}

func (m *mapCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	mv := reflect.NewAt(m.typ, p).Elem()
	if mv.IsNil() {
		b.WriteInt32(wire.Absent)
		return nil
	}
	n := mv.Len()
	if !wire.FitsPrefix(n) {
		return errors.Overflow(errors.PhaseEncode, nil, n, "int32 length prefix")
	}
	b.WriteInt32(int32(n))
	if n == 0 {
		return nil
	}

	k := reflect.New(m.keyType).Elem()
	v := reflect.New(m.valType).Elem()

	iter := mv.MapRange()
	if m.sortKeys {
		// Entries are collected from the iterator rather than looked up by
		// key because NaN keys cannot be found again.
		entries := make([]mapEntry, 0, n)
		for iter.Next() {
			entries = append(entries, mapEntry{key: iter.Key(), val: iter.Value()})
		}
		// NaN keys compare equal to each other; order them by their encoding.
		for i := range entries {
			if kf := entries[i].key; isFloat(kf.Kind()) && math.IsNaN(kf.Float()) {
				k.Set(entries[i].key)
				v.Set(entries[i].val)
				tmp := buffer.New(0)
				if err := m.encodeEntry(tmp, k, v); err != nil {
					return err
				}
				entries[i].enc = tmp.Bytes()
			}
		}
		slices.SortFunc(entries, func(a, b mapEntry) int {
			if c := compareKeys(a.key, b.key); c != 0 {
				return c
			}
			return bytes.Compare(a.enc, b.enc)
		})
		for _, e := range entries {
			k.Set(e.key)
			v.Set(e.val)
			if err := m.encodeEntry(b, k, v); err != nil {
				return err
			}
		}
		return nil
	}

	for iter.Next() {
		k.SetIterKey(iter)
		v.SetIterValue(iter)
		if err := m.encodeEntry(b, k, v); err != nil {
			return err
		}
	}
	return nil
}

type mapEntry struct {
	key, val reflect.Value
	enc      []byte // set for NaN keys only
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func (m *mapCodec) encodeEntry(b *buffer.Buffer, k, v reflect.Value) error {
	if err := m.key.encode(b, k.Addr().UnsafePointer()); err != nil {
		return withPath(err, "{key}")
	}
	if err := m.val.encode(b, v.Addr().UnsafePointer()); err != nil {
		return withPath(err, "["+formatKey(k)+"]")
	}
	return nil
}

func (m *mapCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	n, err := readMapCount(c, m.typ, m.val.minSize()+m.key.minSize(), int(m.keyType.Size()+m.valType.Size()), m.maxLen, m.mode)
	if err != nil {
		return err
	}

	dst := reflect.NewAt(m.typ, p).Elem()
	if n < 0 {
		dst.SetZero()
		return nil
	}

	mv := reflect.MakeMapWithSize(m.typ, n)
	k := reflect.New(m.keyType)
	v := reflect.New(m.valType)
	for i := 0; i < n; i++ {
		k.Elem().SetZero()
		v.Elem().SetZero()
		if err := m.key.decode(c, k.UnsafePointer()); err != nil {
			return withPath(err, "{key}")
		}
		if err := m.val.decode(c, v.UnsafePointer()); err != nil {
			return withPath(err, "["+formatKey(k.Elem())+"]")
		}
		mv.SetMapIndex(k.Elem(), v.Elem())
	}
	dst.Set(mv)
	return nil
}

// slotMapCodec handles SlotMap containers, written in physical slot order.
type slotMapCodec struct {
	typ        reflect.Type
	structType reflect.Type
	keyType    reflect.Type
	valType    reflect.Type
	key        Codec
	val        Codec
	maxLen     int
	mode       MapDecodeMode
	nullable   bool
}

func (m *slotMapCodec) Type() reflect.Type { return m.typ }
func (m *slotMapCodec) Shape() Shape       { return ShapeMap }
func (m *slotMapCodec) minSize() int       { return wire.PrefixSize }

func (m *slotMapCodec) String() string {
	return "map<" + m.key.String() + ", " + m.val.String() + ">(" + typeName(m.typ) + ")"
}

// slots returns the container stored at p, or nil for an absent pointer.
func (m *slotMapCodec) slots(p unsafe.Pointer) SlotMap {
	if m.nullable {
		sp := *(*unsafe.Pointer)(p)
		if sp == nil {
			return nil
		}
		return reflect.NewAt(m.structType, sp).Interface().(SlotMap)
	}
	return reflect.NewAt(m.structType, p).Interface().(SlotMap)
}

func (m *slotMapCodec) encode(b *buffer.Buffer, p unsafe.Pointer) error {
	sm := m.slots(p)
	if sm == nil {
		b.WriteInt32(wire.Absent)
		return nil
	}
	n := sm.Len()
	if !wire.FitsPrefix(n) {
		return errors.Overflow(errors.PhaseEncode, nil, n, "int32 length prefix")
	}
	b.WriteInt32(int32(n))

	written := 0
	var err error
	sm.RangeSlots(func(k, v reflect.Value) bool {
		if err = m.key.encode(b, k.Addr().UnsafePointer()); err != nil {
			err = withPath(err, "{key}")
			return false
		}
		if err = m.val.encode(b, v.Addr().UnsafePointer()); err != nil {
			err = withPath(err, "["+formatKey(k)+"]")
			return false
		}
		written++
		return true
	})
	if err != nil {
		return err
	}
	if written != n {
		return errors.InvalidData(errors.PhaseEncode, nil,
			"slot map reported "+strconv.Itoa(n)+" entries but yielded "+strconv.Itoa(written))
	}
	return nil
}

func (m *slotMapCodec) decode(c *buffer.Cursor, p unsafe.Pointer) error {
	n, err := readMapCount(c, m.typ, m.val.minSize()+m.key.minSize(), int(m.keyType.Size()+m.valType.Size()), m.maxLen, m.mode)
	if err != nil {
		return err
	}

	if n < 0 {
		if !m.nullable {
			return errors.MalformedLength(nil, wire.Absent)
		}
		*(*unsafe.Pointer)(p) = nil
		return nil
	}

	var sm SlotMap
	var fresh reflect.Value
	if m.nullable {
		fresh = reflect.New(m.structType)
		sm = fresh.Interface().(SlotMap)
	} else {
		sm = reflect.NewAt(m.structType, p).Interface().(SlotMap)
	}
	sm.Reset(n)

	k := reflect.New(m.keyType)
	v := reflect.New(m.valType)
	for i := 0; i < n; i++ {
		k.Elem().SetZero()
		v.Elem().SetZero()
		if err := m.key.decode(c, k.UnsafePointer()); err != nil {
			return withPath(err, "{key}")
		}
		if err := m.val.decode(c, v.UnsafePointer()); err != nil {
			return withPath(err, "["+formatKey(k.Elem())+"]")
		}
		sm.Insert(k.Elem(), v.Elem())
	}

	if m.nullable {
		*(*unsafe.Pointer)(p) = fresh.UnsafePointer()
	}
	return nil
}

// readMapCount reads a map count prefix, returning -1 for an absent map.
func readMapCount(c *buffer.Cursor, t reflect.Type, minEntry, entrySize, maxLen int, mode MapDecodeMode) (int, error) {
	n, err := c.ReadInt32()
	if err != nil {
		return 0, err
	}
	switch {
	case n == wire.Absent:
		return -1, nil
	case n < 0:
		return 0, errors.MalformedLength(nil, n)
	case n > 0 && mode == MapDecodeUnsupported:
		return 0, errors.NotImplemented(errors.PhaseDecode, t.String(), "map decoding is disabled")
	}
	if err := checkCount(c, int(n), minEntry, entrySize, maxLen); err != nil {
		return 0, err
	}
	return int(n), nil
}

func orderedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case b.Bool():
			return -1
		default:
			return 1
		}
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	default:
		return cmp.Compare(a.Uint(), b.Uint())
	}
}

func formatKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return strconv.Quote(k.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return k.Type().String()
	}
}

package dense

import (
	"iter"
	"reflect"
)

type entry[K comparable, V any] struct {
	key     K
	value   V
	removed bool
}

// Map is a hash map that keeps entries in insertion order in a dense slot
// array. Deleting marks the slot as a tombstone; tombstones are reclaimed when
// they outnumber live entries. The zero value is an empty map ready to use.
type Map[K comparable, V any] struct {
	index   map[K]int
	entries []entry[K, V]
	live    int
}

// New creates a Map with room for capacity entries.
func New[K comparable, V any](capacity int) *Map[K, V] {
	m := &Map[K, V]{}
	m.Reset(capacity)
	return m
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return m.live
}

// Slots returns the number of physical slots, including tombstones.
func (m *Map[K, V]) Slots() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get returns the value stored for k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if m == nil || m.index == nil {
		var zero V
		return zero, false
	}
	i, ok := m.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	return m.entries[i].value, true
}

// Set stores v for k. An existing key keeps its slot.
func (m *Map[K, V]) Set(k K, v V) {
	if m.index == nil {
		m.index = make(map[K]int)
	}
	if i, ok := m.index[k]; ok {
		m.entries[i].value = v
		return
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, entry[K, V]{key: k, value: v})
	m.live++
}

// Delete removes k and reports whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	if m == nil || m.index == nil {
		return false
	}
	i, ok := m.index[k]
	if !ok {
		return false
	}
	delete(m.index, k)
	var zero entry[K, V]
	m.entries[i] = zero
	m.entries[i].removed = true
	m.live--

	if tombstones := len(m.entries) - m.live; tombstones > m.live {
		m.Compact()
	}
	return true
}

// Compact drops tombstones, keeping live entries in order.
func (m *Map[K, V]) Compact() {
	if m.live == len(m.entries) {
		return
	}
	j := 0
	for i := range m.entries {
		if m.entries[i].removed {
			continue
		}
		m.entries[j] = m.entries[i]
		m.index[m.entries[j].key] = j
		j++
	}
	clear(m.entries[j:])
	m.entries = m.entries[:j]
}

// All iterates live entries in slot order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for i := range m.entries {
			e := &m.entries[i]
			if e.removed {
				continue
			}
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Keys returns the live keys in slot order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// KeyType returns the reflect type of K. It is valid on a nil map.
func (m *Map[K, V]) KeyType() reflect.Type {
	return reflect.TypeFor[K]()
}

// ValueType returns the reflect type of V. It is valid on a nil map.
func (m *Map[K, V]) ValueType() reflect.Type {
	return reflect.TypeFor[V]()
}

// RangeSlots visits live entries in slot order with addressable key and
// value views. The views must not be retained or modified.
func (m *Map[K, V]) RangeSlots(fn func(key, value reflect.Value) bool) {
	for i := range m.entries {
		e := &m.entries[i]
		if e.removed {
			continue
		}
		if !fn(reflect.ValueOf(&e.key).Elem(), reflect.ValueOf(&e.value).Elem()) {
			return
		}
	}
}

// Reset removes every entry and reserves room for capacity entries.
func (m *Map[K, V]) Reset(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	m.index = make(map[K]int, capacity)
	m.entries = make([]entry[K, V], 0, capacity)
	m.live = 0
}

// Insert stores a key and value given as reflect values of types K and V.
func (m *Map[K, V]) Insert(key, value reflect.Value) {
	m.Set(valueAs[K](key), valueAs[V](value))
}

func valueAs[T any](v reflect.Value) T {
	if v.CanAddr() {
		return *v.Addr().Interface().(*T)
	}
	return v.Interface().(T)
}

// Package codec builds and caches per-type binary codecs.
//
// A Registry inspects a Go type once, classifies it into one of a closed set
// of shapes and composes a codec for it from the codecs of its parts. Later
// calls for the same type reuse the published codec; encoding and decoding
// work directly on the value's memory without per-call type inspection.
//
// # Shapes
//
//   - Unmanaged: scalars, arrays and structs with no references anywhere in
//     their layout. Written as a raw copy of host memory.
//   - Text: string (never absent) and *string (nil is absent).
//   - Optional: *E for other E. A presence byte, then E.
//   - Sequence: []E and [N]E. A count prefix, then the elements. Slices of
//     unmanaged elements are copied as one block.
//   - Iterable: func(yield func(E) bool), including iter.Seq[E].
//   - Map: map[K]V and SlotMap containers. A count prefix, then key/value pairs.
//   - Object: structs (value form) and pointers to structs (reference form,
//     preceded by a null indicator byte).
//
// # Wire Format
//
// Length prefixes are signed 32-bit little-endian integers: -1 marks an
// absent value, 0 an empty one. The format carries no type information and
// no version; a payload can only be decoded with the codec of the exact type
// that produced it. Unmanaged payloads use host byte order (see HostLittleEndian).
//
// # Usage
//
//	c, err := codec.For[Order](codec.Default())
//	data, err := c.Marshal(order)
//	back, err := c.Unmarshal(data)
//
// # Recursive Types
//
// Self-referencing types are supported. While a type's codec is being built,
// references back to it resolve to a forwarding codec that is bound when the
// build completes. Nothing from an unfinished build is ever published.
package codec

// Package binpack is a schema-less binary serializer for statically typed Go values.
//
// The first time a type is serialized, binpack inspects it once and builds a
// specialized codec that is cached and reused. The encoding carries no type
// tags and no field names: the exact Go type used to encode is required to
// decode.
//
// # Architecture Overview
//
//	binpack/             Entry points: Serialize, Deserialize, Engine, Serializer
//	├── codec/           Shape classification, codec registry and per-shape codecs
//	├── buffer/          Growable write buffer, bounded read cursor, buffer pool
//	├── dense/           Insertion-ordered slot map encoded in slot order
//	├── guestmem/        Serialize into and out of WebAssembly linear memory
//	├── metrics/         Prometheus collector for registry statistics
//	├── errors/          Structured error types
//	└── cmd/binpack/     Inspector CLI
//
// # Quick Start
//
//	data, err := binpack.Serialize(order)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	back, err := binpack.Deserialize[Order](data)
//
// # Supported Types
//
//   - Scalars, arrays and reference-free structs (raw memory copy)
//   - string and *string
//   - Pointers (optional values) and pointers to structs (nullable records)
//   - Slices and arrays
//   - Maps and dense.Map
//   - Iterator functions (iter.Seq)
//   - Structs, by exported fields in declaration order
//
// Interfaces, channels, non-iterator functions and unsafe.Pointer are
// rejected when the codec is built. A struct whose only state is unexported
// (time.Time for instance) is rejected as well.
//
// # Wire Format
//
// Counts and text lengths are 32-bit little-endian signed integers, with -1
// for absent values. Optional values and nullable records carry a single
// presence byte. Reference-free values are copied in host byte order, so a
// payload is only portable between hosts of the same architecture.
//
// # Error Handling
//
// All errors are *errors.Error values carrying the phase, kind and field path:
//
//	_, err := binpack.Deserialize[Order](data)
//	if errors.Is(err, binerrors.ErrTruncatedInput) {
//	    // input ended early
//	}
package binpack

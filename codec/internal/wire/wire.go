// Package wire holds the constants of the binpack byte format and the
// overflow-checked arithmetic used when sizing decode allocations.
package wire

import "math"

// Length prefix values.
const (
	Absent int32 = -1
	Empty  int32 = 0
)

// Presence flags written before optional payloads and reference records.
const (
	FlagAbsent  byte = 0
	FlagPresent byte = 1
)

// PrefixSize is the encoded size of a length prefix.
const PrefixSize = 4

// MaxLength is the default upper bound for a decoded element count.
// Counts above it are rejected before anything is allocated.
const MaxLength = 1 << 27

// MulInt returns a*b and whether the product fits in an int.
// Both operands must be non-negative.
func MulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// FitsPrefix reports whether n can be written as a length prefix.
func FitsPrefix(n int) bool {
	return n >= 0 && n <= math.MaxInt32
}

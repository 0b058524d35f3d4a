// Package errors provides structured error types for binpack.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go type name, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindMalformedLength).
//		Path("Order", "Lines").
//		GoType("[]main.Line").
//		Detail("invalid length prefix %d", -7).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedType(path, "chan int", "channels cannot be encoded")
//	err := errors.Truncated(8, 3)
//
// Match categories with the standard library:
//
//	if errors.Is(err, binpackerrors.ErrTruncatedInput) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

package errors

import (
	"fmt"
	"strings"
)

// Phase is the stage that failed: building a codec, encoding, decoding or I/O.
type Phase string

const (
	PhaseCompile Phase = "compile" // codec construction
	PhaseEncode  Phase = "encode"  // Go value to bytes
	PhaseDecode  Phase = "decode"  // bytes to Go value
	PhaseIO      Phase = "io"      // sinks and sources
)

// Kind is the failure category; errors.Is matches on Phase and Kind.
type Kind string

const (
	KindUnsupportedType Kind = "unsupported_type"
	KindConstruction    Kind = "construction"
	KindMalformedLength Kind = "malformed_length"
	KindTruncatedInput  Kind = "truncated_input"
	KindNotImplemented  Kind = "not_implemented"
	KindTypeMismatch    Kind = "type_mismatch"
	KindInvalidData     Kind = "invalid_data"
	KindInvalidUTF8     Kind = "invalid_utf8"
	KindOverflow        Kind = "overflow"
	KindNilPointer      Kind = "nil_pointer"
	KindIO              Kind = "io"
)

// Match targets for errors.Is. Only Phase and Kind take part in the comparison.
var (
	ErrUnsupportedType = &Error{Phase: PhaseCompile, Kind: KindUnsupportedType}
	ErrConstruction    = &Error{Phase: PhaseCompile, Kind: KindConstruction}
	ErrMalformedLength = &Error{Phase: PhaseDecode, Kind: KindMalformedLength}
	ErrTruncatedInput  = &Error{Phase: PhaseDecode, Kind: KindTruncatedInput}
	ErrNotImplemented  = &Error{Phase: PhaseDecode, Kind: KindNotImplemented}
)

// Error is the structured error type used throughout binpack
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Path   []string
}

// Error renders phase, kind, path, Go type, detail and cause, skipping empty parts.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(joinPath(e.Path))
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// joinPath renders a field path, gluing index segments ("[3]") to their parent.
func joinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Unwrap exposes Cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same Phase and Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// WithPath returns a copy of e with prefix prepended to its path.
// Codecs use it to report where in a nested value a failure happened.
func (e *Error) WithPath(prefix ...string) *Error {
	cp := *e
	cp.Path = make([]string, 0, len(prefix)+len(e.Path))
	cp.Path = append(cp.Path, prefix...)
	cp.Path = append(cp.Path, e.Path...)
	return &cp
}

// Builder assembles an Error field by field.
type Builder struct {
	err Error
}

// New starts an error of the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path, outermost first.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType names the Go type involved.
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value records the value that was rejected.
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause records the error that triggered this one.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the message, formatted when args are given.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the assembled error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Shorthands for the errors the codecs raise most.

// UnsupportedType creates an error for a type no codec can be built for
func UnsupportedType(path []string, goType, detail string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindUnsupportedType,
		Path:   path,
		GoType: goType,
		Detail: detail,
	}
}

// Construction creates an error for a record type that cannot be rebuilt from its public fields
func Construction(path []string, goType, detail string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindConstruction,
		Path:   path,
		GoType: goType,
		Detail: detail,
	}
}

// MalformedLength creates an error for a negative length prefix other than the absent sentinel
func MalformedLength(path []string, length int32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedLength,
		Path:   path,
		Detail: fmt.Sprintf("invalid length prefix %d", length),
		Value:  length,
	}
}

// Truncated creates an error for a read past the end of the input
func Truncated(need, remaining int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncatedInput,
		Detail: fmt.Sprintf("need %d bytes, %d remaining", need, remaining),
		Value:  need,
	}
}

// NotImplemented creates an error for a decode path that is switched off
func NotImplemented(phase Phase, goType, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotImplemented,
		GoType: goType,
		Detail: what,
	}
}

// TypeMismatch reports a value whose Go type is not the one expected.
func TypeMismatch(phase Phase, path []string, goType, expected string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Detail: "expected " + expected,
	}
}

// InvalidUTF8 reports text that is not valid UTF-8.
func InvalidUTF8(path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidData reports well-framed input with an impossible value in it.
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Overflow reports a count or length above a limit.
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v exceeds %s", value, limit),
		Value:  value,
	}
}

// NilPointer reports a nil where a value was required.
func NilPointer(phase Phase, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// IO wraps a failure of an underlying reader or writer
func IO(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   KindIO,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap attaches phase and kind to an error raised outside this package.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

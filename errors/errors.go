package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConvert Phase = "convert" // Go value to argument
	PhaseWrite   Phase = "write"   // argument to native slot
	PhasePack    Phase = "pack"    // argument list construction
	PhaseRelease Phase = "release" // teardown
	PhaseAlloc   Phase = "alloc"   // native allocation
	PhaseDecode  Phase = "decode"  // native slot back to Go
	PhaseConfig  Phase = "config"  // packer and profile configuration
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindInvalidState Kind = "invalid_state"
	KindAllocation   Kind = "allocation"
	KindOverflow     Kind = "overflow"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindUnsupported  Kind = "unsupported"
	KindInvalidData  Kind = "invalid_data"
	KindInvalidUTF8  Kind = "invalid_utf8"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Path   []string
}

// Error renders as "phase kind [at path]: detail (Go type): cause".
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Phase))
	b.WriteByte(' ')
	b.WriteString(string(e.Kind))
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.GoType != "" {
		fmt.Fprintf(&b, " (Go %s)", e.GoType)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same phase and kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Phase == t.Phase && e.Kind == t.Kind
}

// IsKind reports whether err or any *Error in its cause chain has the given
// kind, regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder assembles an Error field by field.
type Builder struct {
	err Error
}

func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

// Path sets the argument path, outermost first.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail formats the message with fmt.Sprintf when args are given.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	b.err.Detail = msg
	return b
}

func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

func InvalidInput(phase Phase, detail string) *Error {
	return New(phase, KindInvalidInput).Detail(detail).Build()
}

// UnsupportedType reports a Go value the conversion table has no row for.
func UnsupportedType(phase Phase, path []string, goType string) *Error {
	return New(phase, KindInvalidInput).
		Path(path...).
		GoType(goType).
		Detail("no variadic conversion for this type").
		Build()
}

// InvalidState reports use of an argument or list after release.
func InvalidState(phase Phase, detail string) *Error {
	return New(phase, KindInvalidState).Detail(detail).Build()
}

func AllocationFailed(phase Phase, size, align uint32, cause error) *Error {
	return New(phase, KindAllocation).
		Value(size).
		Cause(cause).
		Detail("cannot allocate %d bytes aligned to %d", size, align).
		Build()
}

func Overflow(phase Phase, path []string, value any, target string) *Error {
	return New(phase, KindOverflow).
		Path(path...).
		Value(value).
		Detail("%v does not fit %s", value, target).
		Build()
}

func OutOfBounds(phase Phase, addr uint64, length int) *Error {
	return New(phase, KindOutOfBounds).
		Value(addr).
		Detail("[0x%x, +%d) is outside memory", addr, length).
		Build()
}

// InvalidUTF8 shows at most 32 bytes of the offending text.
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	if len(data) > 32 {
		data = data[:32]
	}
	return New(phase, KindInvalidUTF8).
		Path(path...).
		Detail("invalid UTF-8 in %x", data).
		Build()
}

func InvalidData(phase Phase, path []string, detail string) *Error {
	return New(phase, KindInvalidData).Path(path...).Detail(detail).Build()
}

func Unsupported(phase Phase, what string) *Error {
	return New(phase, KindUnsupported).Detail(what + " is not supported").Build()
}

// Wrap attaches phase, kind and detail to cause.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Cause(cause).Detail(detail).Build()
}

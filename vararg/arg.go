package vararg

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wippyai/varargs"
	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/charset"
	"github.com/wippyai/varargs/errors"
)

// Target is the native side an Arg is written into.
type Target struct {
	Memory    varargs.Memory
	Allocator varargs.Allocator
	Encoding  charset.Encoding
	Platform  abi.Platform
}

type state uint8

const (
	stateFresh state = iota
	stateWritten
	stateReleased
)

// Arg is one variadic argument. An Arg is single-use and not safe for
// concurrent use.
type Arg struct {
	value any
	alloc varargs.Allocator
	text  string
	bits  uint64
	ptr   uint64
	size  uint32
	align uint32
	kind  Kind
	state state
}

// Int32 returns a 4-byte integer argument.
func Int32(v int32) *Arg {
	return &Arg{kind: KindInt32, bits: uint64(uint32(v)), value: v}
}

// Int64 returns an 8-byte integer argument.
func Int64(v int64) *Arg {
	return &Arg{kind: KindInt64, bits: uint64(v), value: v}
}

// Double returns an 8-byte floating point argument.
func Double(v float64) *Arg {
	return &Arg{kind: KindDouble, bits: math.Float64bits(v), value: v}
}

// Single returns a 4-byte floating point argument. Use it only for callees
// that read an unpromoted float; From promotes float32 where C does.
func Single(v float32) *Arg {
	return &Arg{kind: KindSingle, bits: uint64(math.Float32bits(v)), value: v}
}

// Decimal returns an argument written as the nearest double to d.
// The narrowing is lossy; Value keeps d.
func Decimal(d decimal.Decimal) *Arg {
	f, _ := d.Float64()
	return &Arg{kind: KindDecimal, bits: math.Float64bits(f), value: d}
}

// Char returns an argument written as a one-character string.
// Invalid runes are written as U+FFFD.
func Char(r rune) *Arg {
	return &Arg{kind: KindChar, text: string(r), value: r}
}

// String returns a text argument.
func String(s string) *Arg {
	return &Arg{kind: KindString, text: s, value: s}
}

// Kind returns the variant tag.
func (a *Arg) Kind() Kind { return a.kind }

// Value returns the original logical value, for callers that reformat it
// without decoding the slot.
func (a *Arg) Value() any { return a.value }

// Text returns the text of a String or Char argument.
func (a *Arg) Text() string { return a.text }

// Written reports whether Write has run and Release has not.
func (a *Arg) Written() bool { return a.state == stateWritten }

// Released reports whether Release has run.
func (a *Arg) Released() bool { return a.state == stateReleased }

// Secondary returns the text allocation made by Write, if any.
func (a *Arg) Secondary() (ptr uint64, size uint32) {
	return a.ptr, a.size
}

// Footprint returns the number of bytes the argument occupies in a list
// packed for p.
func (a *Arg) Footprint(p abi.Platform) uint32 {
	switch a.kind {
	case KindInt32, KindSingle:
		return 4
	case KindInt64, KindDouble, KindDecimal:
		return 8
	default:
		return p.PointerSize
	}
}

// Write emits exactly Footprint(t.Platform) bytes at dest. Text arguments
// first allocate and fill their secondary buffer and write its address.
func (a *Arg) Write(t *Target, dest uint64) error {
	if t == nil || t.Memory == nil {
		return errors.InvalidInput(errors.PhaseWrite, "target has no memory")
	}
	if err := t.Platform.Validate(); err != nil {
		return err
	}

	var slot [8]byte
	order := t.Platform.ByteOrder
	switch a.kind {
	case KindInt32, KindSingle:
		order.PutUint32(slot[:], uint32(a.bits))
	case KindInt64, KindDouble, KindDecimal:
		order.PutUint64(slot[:], a.bits)
	case KindChar, KindString:
		ptr, err := a.writeText(t)
		if err != nil {
			return err
		}
		t.Platform.PutPointer(slot[:], ptr)
	default:
		return errors.Unsupported(errors.PhaseWrite, "argument kind "+a.kind.String())
	}

	fp := a.Footprint(t.Platform)
	if err := t.Memory.Write(dest, slot[:fp]); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindOutOfBounds, err,
			fmt.Sprintf("write %s slot at 0x%x", a.kind, dest))
	}
	if a.state == stateFresh {
		a.state = stateWritten
	}
	return nil
}

func (a *Arg) writeText(t *Target) (uint64, error) {
	switch a.state {
	case stateReleased:
		return 0, errors.InvalidState(errors.PhaseWrite, a.kind.String()+" argument already released")
	case stateWritten:
		return 0, errors.InvalidState(errors.PhaseWrite, a.kind.String()+" argument already written")
	}
	if t.Allocator == nil {
		return 0, errors.InvalidInput(errors.PhaseWrite, "target has no allocator")
	}

	enc := t.Encoding
	if enc.IsZero() {
		enc = charset.UTF8
	}
	data, err := enc.Encode(a.text, t.Platform.ByteOrder)
	if err != nil {
		return 0, err
	}
	if len(data) > abi.MaxAlloc {
		return 0, errors.Overflow(errors.PhaseWrite, nil, len(data), "maximum allocation")
	}

	size, align := uint32(len(data)), enc.UnitSize()
	ptr, err := t.Allocator.Alloc(size, align)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, err)
	}
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
	}
	if !t.Platform.FitsPointer(ptr) {
		t.Allocator.Free(ptr, size, align)
		return 0, errors.Overflow(errors.PhaseWrite, nil, ptr, t.Platform.String()+" pointer")
	}
	if err := t.Memory.Write(ptr, data); err != nil {
		t.Allocator.Free(ptr, size, align)
		return 0, errors.Wrap(errors.PhaseWrite, errors.KindOutOfBounds, err,
			fmt.Sprintf("write %d bytes of text at 0x%x", size, ptr))
	}

	a.alloc, a.ptr, a.size, a.align = t.Allocator, ptr, size, align
	a.state = stateWritten
	return ptr, nil
}

// Release frees the secondary allocation, if any. It is idempotent.
func (a *Arg) Release() {
	if a == nil || a.state == stateReleased {
		return
	}
	if a.ptr != 0 && a.alloc != nil {
		a.alloc.Free(a.ptr, a.size, a.align)
	}
	a.alloc, a.ptr, a.size, a.align = nil, 0, 0, 0
	a.state = stateReleased
}

func (a *Arg) String() string {
	switch a.kind {
	case KindChar, KindString:
		return fmt.Sprintf("%s(%q)", a.kind, a.text)
	}
	return fmt.Sprintf("%s(%v)", a.kind, a.value)
}

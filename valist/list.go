package valist

import (
	"math"
	"runtime"
	"strconv"

	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/errors"
	"github.com/wippyai/varargs/vararg"
)

// Slot locates one argument inside the packed buffer.
type Slot struct {
	Index  int
	Offset uint32
	Size   uint32
	Kind   vararg.Kind
}

// List is a packed argument list. It owns its arguments and is not safe for
// concurrent use.
type List struct {
	target   vararg.Target
	args     []*vararg.Arg
	slots    []Slot
	handle   uint64
	size     uint32
	align    uint32
	cleanup  runtime.Cleanup
	tracked  bool
	released bool
}

// Handle returns the buffer address to pass to the native callee. It is 0 for
// an empty list and after Release.
func (l *List) Handle() uint64 { return l.handle }

// Size returns the packed length in bytes.
func (l *List) Size() uint32 { return l.size }

// Len returns the number of arguments.
func (l *List) Len() int { return len(l.args) }

// Align returns the alignment the buffer was allocated with.
func (l *List) Align() uint32 { return l.align }

// Slots returns the layout of the buffer in argument order.
func (l *List) Slots() []Slot {
	out := make([]Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

// Args returns the owned arguments in order. Callers must not release them.
func (l *List) Args() []*vararg.Arg {
	out := make([]*vararg.Arg, len(l.args))
	copy(out, l.args)
	return out
}

// Released reports whether Release has run.
func (l *List) Released() bool { return l.released }

// Bytes returns a copy of the packed buffer.
func (l *List) Bytes() ([]byte, error) {
	if l.released {
		return nil, errors.InvalidState(errors.PhaseDecode, "argument list released")
	}
	if l.size == 0 {
		return []byte{}, nil
	}
	b, err := l.target.Memory.Read(l.handle, l.size)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Decode reads every slot back by its declared width. Text slots are
// dereferenced and decoded with the packer's encoding. Integers decode to
// int32 or int64, floats to float32 or float64, text to string.
func (l *List) Decode() ([]any, error) {
	buf, err := l.Bytes()
	if err != nil {
		return nil, err
	}
	plat := l.target.Platform
	order := plat.ByteOrder
	out := make([]any, len(l.slots))
	for i, s := range l.slots {
		b := buf[s.Offset : s.Offset+s.Size]
		switch s.Kind {
		case vararg.KindInt32:
			out[i] = int32(order.Uint32(b))
		case vararg.KindInt64:
			out[i] = int64(order.Uint64(b))
		case vararg.KindDouble, vararg.KindDecimal:
			out[i] = math.Float64frombits(order.Uint64(b))
		case vararg.KindSingle:
			out[i] = math.Float32frombits(order.Uint32(b))
		case vararg.KindChar, vararg.KindString:
			text, err := l.readText(plat.Pointer(b))
			if err != nil {
				return nil, atIndex(err, i)
			}
			out[i] = text
		default:
			return nil, errors.Unsupported(errors.PhaseDecode, "argument kind "+s.Kind.String())
		}
	}
	return out, nil
}

func (l *List) readText(ptr uint64) (string, error) {
	if ptr == 0 {
		return "", errors.InvalidData(errors.PhaseDecode, nil, "null text pointer")
	}
	enc := l.target.Encoding
	unit := enc.UnitSize()

	var text []byte
	for addr := ptr; ; addr += uint64(unit) {
		if len(text) >= abi.MaxAlloc {
			return "", errors.InvalidData(errors.PhaseDecode, nil,
				"text at 0x"+strconv.FormatUint(ptr, 16)+" is not terminated")
		}
		u, err := l.target.Memory.Read(addr, unit)
		if err != nil {
			return "", err
		}
		if enc.IndexTerminator(u) == 0 {
			break
		}
		text = append(text, u...)
	}
	return enc.Decode(text, l.target.Platform.ByteOrder)
}

// Release frees every argument's secondary allocation and then the buffer.
// It is idempotent; afterwards Handle returns 0.
func (l *List) Release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	if l.tracked {
		l.cleanup.Stop()
	}
	releaseAll(l.args)
	if l.handle != 0 {
		l.target.Allocator.Free(l.handle, l.size, l.align)
	}
	l.handle = 0
}

package memory

import (
	"github.com/wippyai/varargs/errors"
)

// Buffer is a flat address space [base, base+len) backed by a Go slice.
type Buffer struct {
	data []byte
	base uint64
}

// NewBuffer allocates a zeroed address space of size bytes at base.
func NewBuffer(base uint64, size uint32) *Buffer {
	return &Buffer{data: make([]byte, size), base: base}
}

// BufferOver uses data as the address space [base, base+len(data)). The
// slice is not copied.
func BufferOver(base uint64, data []byte) *Buffer {
	return &Buffer{data: data, base: base}
}

// Base returns the first valid address.
func (b *Buffer) Base() uint64 { return b.base }

// Len returns the size of the address space.
func (b *Buffer) Len() uint32 { return uint32(len(b.data)) }

// Bytes exposes the backing slice.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) span(addr uint64, n int) ([]byte, bool) {
	if addr < b.base {
		return nil, false
	}
	off := addr - b.base
	if off > uint64(len(b.data)) || uint64(n) > uint64(len(b.data))-off {
		return nil, false
	}
	return b.data[off : off+uint64(n)], true
}

// Read returns a view of length bytes at addr.
func (b *Buffer) Read(addr uint64, length uint32) ([]byte, error) {
	s, ok := b.span(addr, int(length))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, addr, int(length))
	}
	return s, nil
}

// Write copies data to addr.
func (b *Buffer) Write(addr uint64, data []byte) error {
	s, ok := b.span(addr, len(data))
	if !ok {
		return errors.OutOfBounds(errors.PhaseWrite, addr, len(data))
	}
	copy(s, data)
	return nil
}

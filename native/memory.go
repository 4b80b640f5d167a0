package native

import (
	"unsafe"

	"github.com/wippyai/varargs/errors"
)

// Memory reads and writes host memory at raw addresses.
type Memory struct{}

func pointer(addr uint64, n int, phase errors.Phase) (unsafe.Pointer, error) {
	if addr == 0 || uint64(uintptr(addr)) != addr {
		return nil, errors.OutOfBounds(phase, addr, n)
	}
	if n > 0 && uint64(uintptr(addr+uint64(n)-1)) < addr {
		return nil, errors.OutOfBounds(phase, addr, n)
	}
	return unsafe.Pointer(uintptr(addr)), nil //nolint:govet // address comes from a native allocator
}

// Read returns a view of length bytes at addr.
func (Memory) Read(addr uint64, length uint32) ([]byte, error) {
	p, err := pointer(addr, int(length), errors.PhaseDecode)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(p), length), nil
}

// Write copies data to addr.
func (Memory) Write(addr uint64, data []byte) error {
	p, err := pointer(addr, len(data), errors.PhaseWrite)
	if err != nil {
		return err
	}
	copy(unsafe.Slice((*byte)(p), len(data)), data)
	return nil
}

// Address returns the host address of b's first byte, or 0 for an empty
// slice.
func Address(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}

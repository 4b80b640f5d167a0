package vararg

import (
	"fmt"
)

const mockBase = 0x1000

// mockMemory is a flat address space starting at mockBase.
type mockMemory struct {
	data   []byte
	writes int
}

func newMockMemory(size int) *mockMemory {
	return &mockMemory{data: make([]byte, size)}
}

func (m *mockMemory) span(addr uint64, n int) ([]byte, error) {
	if addr < mockBase || addr-mockBase+uint64(n) > uint64(len(m.data)) {
		return nil, fmt.Errorf("address 0x%x+%d out of range", addr, n)
	}
	off := addr - mockBase
	return m.data[off : off+uint64(n)], nil
}

func (m *mockMemory) Read(addr uint64, length uint32) ([]byte, error) {
	b, err := m.span(addr, int(length))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (m *mockMemory) Write(addr uint64, data []byte) error {
	b, err := m.span(addr, len(data))
	if err != nil {
		return err
	}
	m.writes++
	copy(b, data)
	return nil
}

// mockAllocator bump-allocates and counts frees per pointer.
type mockAllocator struct {
	fail   error
	next   uint64
	allocs int
	frees  map[uint64]int
}

func newMockAllocator() *mockAllocator {
	return &mockAllocator{next: mockBase + 0x100, frees: make(map[uint64]int)}
}

func (a *mockAllocator) Alloc(size, align uint32) (uint64, error) {
	if a.fail != nil {
		return 0, a.fail
	}
	if align > 1 {
		a.next = (a.next + uint64(align) - 1) &^ (uint64(align) - 1)
	}
	ptr := a.next
	a.next += uint64(size)
	a.allocs++
	return ptr, nil
}

func (a *mockAllocator) Free(ptr uint64, size, align uint32) {
	a.frees[ptr]++
}

func (a *mockAllocator) totalFrees() int {
	n := 0
	for _, c := range a.frees {
		n += c
	}
	return n
}

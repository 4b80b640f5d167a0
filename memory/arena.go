package memory

import (
	"github.com/wippyai/varargs/heap"
)

// Poison is written over freed arena blocks.
const Poison = 0xDD

// Arena is a Buffer with a heap allocator over its whole range.
type Arena struct {
	*Buffer
	heap *heap.Heap
}

// NewArena creates an arena of size bytes at base. base must be non-zero.
func NewArena(base uint64, size uint32) (*Arena, error) {
	h, err := heap.New(base, size)
	if err != nil {
		return nil, err
	}
	return &Arena{Buffer: NewBuffer(base, size), heap: h}, nil
}

// Alloc implements varargs.Allocator.
func (a *Arena) Alloc(size, align uint32) (uint64, error) {
	return a.heap.Alloc(size, align)
}

// Free implements varargs.Allocator and poisons the block.
func (a *Arena) Free(ptr uint64, size, align uint32) {
	if a.heap.IsLive(ptr) {
		if s, ok := a.span(ptr, int(size)); ok {
			for i := range s {
				s[i] = Poison
			}
		}
	}
	a.heap.Free(ptr, size, align)
}

// Heap exposes the underlying allocator and its counters.
func (a *Arena) Heap() *heap.Heap { return a.heap }

// Stats is shorthand for Heap().Stats().
func (a *Arena) Stats() heap.Stats { return a.heap.Stats() }

package memory

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/varargs"
	"github.com/wippyai/varargs/errors"
	"github.com/wippyai/varargs/heap"
)

// WrapMemory wraps a wazero api.Memory to implement varargs.Memory.
func WrapMemory(mem api.Memory) varargs.Memory {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to the varargs.Memory interface.
// Guest addresses are 32-bit.
type Wrapper struct {
	Mem api.Memory
}

// Read returns a view of guest memory.
func (m *Wrapper) Read(addr uint64, length uint32) ([]byte, error) {
	if addr > math.MaxUint32 {
		return nil, errors.OutOfBounds(errors.PhaseDecode, addr, int(length))
	}
	data, ok := m.Mem.Read(uint32(addr), length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, addr, int(length))
	}
	return data, nil
}

// Write writes bytes to guest memory.
func (m *Wrapper) Write(addr uint64, data []byte) error {
	if addr > math.MaxUint32 || !m.Mem.Write(uint32(addr), data) {
		return errors.OutOfBounds(errors.PhaseWrite, addr, len(data))
	}
	return nil
}

// WrapAllocator wraps exported malloc(size) and free(ptr) functions.
func WrapAllocator(ctx context.Context, malloc, free api.Function) varargs.Allocator {
	if malloc == nil || free == nil {
		return nil
	}
	return &MallocWrapper{Ctx: ctx, Malloc: malloc, FreeFn: free}
}

// MallocWrapper adapts guest malloc/free to varargs.Allocator.
type MallocWrapper struct {
	Ctx    context.Context
	Malloc api.Function
	FreeFn api.Function
}

// Alloc calls the guest malloc. Blocks that miss the requested alignment are
// handed back to the guest and reported as an allocation failure.
func (a *MallocWrapper) Alloc(size, align uint32) (uint64, error) {
	ptr, err := call32(a.Ctx, a.Malloc, uint64(size))
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, err)
	}
	if err := checkBlock(ptr, size, align, "malloc"); err != nil {
		if ptr != 0 {
			a.Free(uint64(ptr), size, align)
		}
		return 0, err
	}
	return uint64(ptr), nil
}

// Free calls the guest free. Failures are logged; free has no result.
func (a *MallocWrapper) Free(ptr uint64, size, align uint32) {
	if _, err := a.FreeFn.Call(a.Ctx, ptr); err != nil {
		heap.Logger().Warn("guest free failed",
			zap.Uint64("ptr", ptr),
			zap.Error(err))
	}
}

// WrapRealloc wraps a component-model cabi_realloc export.
func WrapRealloc(ctx context.Context, fn api.Function) varargs.Allocator {
	if fn == nil {
		return nil
	}
	return &ReallocWrapper{Ctx: ctx, Realloc: fn}
}

// ReallocWrapper drives one cabi_realloc export as a varargs.Allocator:
// (0, 0, align, size) allocates and (ptr, size, align, 0) frees.
type ReallocWrapper struct {
	Ctx     context.Context
	Realloc api.Function
}

// Alloc requests a fresh block. The guest sees the alignment, so a
// misaligned block is a guest bug and is returned before failing.
func (a *ReallocWrapper) Alloc(size, align uint32) (uint64, error) {
	ptr, err := call32(a.Ctx, a.Realloc, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, err)
	}
	if err := checkBlock(ptr, size, align, "cabi_realloc"); err != nil {
		if ptr != 0 {
			a.Free(uint64(ptr), size, align)
		}
		return 0, err
	}
	return uint64(ptr), nil
}

// Free shrinks the block to zero bytes.
func (a *ReallocWrapper) Free(ptr uint64, size, align uint32) {
	if _, err := a.Realloc.Call(a.Ctx, ptr, uint64(size), uint64(align), 0); err != nil {
		heap.Logger().Warn("guest cabi_realloc free failed",
			zap.Uint64("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

// call32 calls fn and returns its single i32 result.
func call32(ctx context.Context, fn api.Function, params ...uint64) (uint32, error) {
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidData).
			Value(len(results)).
			Detail("allocator returned %d results, want 1", len(results)).
			Build()
	}
	return uint32(results[0]), nil
}

func checkBlock(ptr, size, align uint32, fn string) error {
	if ptr == 0 {
		return errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Value(size).
			Detail("%s(%d) returned NULL", fn, size).
			Build()
	}
	if align > 1 && ptr%align != 0 {
		return errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Value(ptr).
			Detail("%s returned 0x%x, not aligned to %d", fn, ptr, align).
			Build()
	}
	return nil
}

// GuestArena allocates from a range of guest memory on the host side.
type GuestArena struct {
	varargs.Memory
	heap *heap.Heap
}

// NewGuestArena manages guest memory from base to the current end of mem.
func NewGuestArena(mem api.Memory, base uint32) (*GuestArena, error) {
	if mem == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "nil guest memory")
	}
	end := mem.Size()
	if base == 0 || base >= end {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("guest arena base 0x%x outside memory of %d bytes", base, end).
			Build()
	}
	h, err := heap.New(uint64(base), end-base)
	if err != nil {
		return nil, err
	}
	return &GuestArena{Memory: WrapMemory(mem), heap: h}, nil
}

// Alloc implements varargs.Allocator.
func (g *GuestArena) Alloc(size, align uint32) (uint64, error) {
	return g.heap.Alloc(size, align)
}

// Free implements varargs.Allocator.
func (g *GuestArena) Free(ptr uint64, size, align uint32) {
	g.heap.Free(ptr, size, align)
}

// Stats returns the arena's allocation counters.
func (g *GuestArena) Stats() heap.Stats { return g.heap.Stats() }

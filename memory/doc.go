// Package memory provides address spaces and allocators for packed lists.
//
// # Buffer and Arena
//
// Buffer is a Go-slice-backed address space starting at a non-zero base.
// Arena pairs a Buffer with a heap.Heap so it satisfies both
// varargs.Memory and varargs.Allocator:
//
//	arena, _ := memory.NewArena(0x10000, 1<<20)
//	// arena implements varargs.Memory and varargs.Allocator
//
// Arena poisons freed blocks, which makes reads through a dangling text
// pointer visible in tests.
//
// # wazero Guest Memory
//
// WrapMemory adapts wazero linear memory, WrapAllocator adapts exported
// malloc/free functions, and WrapRealloc adapts cabi_realloc:
//
//	mem := memory.WrapMemory(mod.Memory())
//	alloc := memory.WrapAllocator(ctx, mod.ExportedFunction("malloc"), mod.ExportedFunction("free"))
//
// AllocatorModule builds a guest that re-exports malloc, free and
// cabi_realloc imported from HostModule, and InstantiateHostAllocator
// provides those imports from a heap.Heap. Register the host module first:
//
//	memory.InstantiateHostAllocator(ctx, rt, h)
//	bin, _ := memory.AllocatorModule(1)
//	mod, _ := rt.Instantiate(ctx, bin)
//
// NewGuestArena manages a range of guest memory from the host side, for
// guests that do not export an allocator.
package memory

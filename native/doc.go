// Package native backs packed lists with real host memory.
//
// Handles produced over this package are process addresses that can be
// handed to a native variadic callee. Three pieces are provided:
//
//	Memory    unchecked reads and writes at raw addresses
//	Arena     an mmap'd anonymous region managed by heap.Heap (linux, darwin, BSD)
//	Malloc    C malloc/free (cgo builds only)
//
// Memory does not validate addresses beyond rejecting zero. Pair it only
// with an allocator whose blocks stay mapped for as long as the list is
// live; Arena is self-contained and bounds-checks every access.
package native

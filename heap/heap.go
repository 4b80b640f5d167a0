// Package heap is a first-fit allocator over a fixed address range.
//
// The heap manages addresses only; it never touches the memory behind them.
// It backs slice arenas, mmap'd native regions and wazero guest memory alike,
// and keeps allocation counters so callers can prove every block was freed
// exactly once.
package heap

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/errors"
)

// Stats is a snapshot of heap counters.
type Stats struct {
	Allocs    uint64 // successful Alloc calls
	Frees     uint64 // successful Free calls
	BadFrees  uint64 // Free of an address that is not live
	Live      int    // blocks currently allocated
	LiveBytes uint64 // bytes currently allocated
}

type span struct {
	addr uint64
	size uint64
}

func (s span) end() uint64 { return s.addr + s.size }

// Heap is safe for concurrent use.
type Heap struct {
	live map[uint64]uint64
	free []span
	base uint64
	size uint64
	st   Stats
	mu   sync.Mutex
}

// New creates a heap over [base, base+size). base must be non-zero so that
// no allocation can be mistaken for the null address.
func New(base uint64, size uint32) (*Heap, error) {
	if base == 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "heap base must be non-zero")
	}
	if size == 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "heap size must be non-zero")
	}
	if base+uint64(size) < base {
		return nil, errors.Overflow(errors.PhaseConfig, nil, base, "address space")
	}
	return &Heap{
		live: make(map[uint64]uint64),
		free: []span{{addr: base, size: uint64(size)}},
		base: base,
		size: uint64(size),
	}, nil
}

// Base returns the first address managed by the heap.
func (h *Heap) Base() uint64 { return h.base }

// Size returns the number of bytes managed by the heap.
func (h *Heap) Size() uint32 { return uint32(h.size) }

// Contains reports whether [addr, addr+n) lies inside the heap range.
func (h *Heap) Contains(addr uint64, n uint32) bool {
	return addr >= h.base && addr+uint64(n) <= h.base+h.size && addr+uint64(n) >= addr
}

// Alloc reserves size bytes aligned to align, which must be a power of two.
// A zero size reserves one byte.
func (h *Heap) Alloc(size, align uint32) (uint64, error) {
	if align == 0 {
		align = 1
	}
	if !abi.IsPowerOfTwo(align) {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(align).
			Detail("alignment %d is not a power of two", align).
			Build()
	}
	if size > abi.MaxAlloc {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
	}
	n := uint64(size)
	if n == 0 {
		n = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.free {
		start := abi.AlignTo64(s.addr, align)
		if start+n > s.end() {
			continue
		}

		var rest []span
		if start > s.addr {
			rest = append(rest, span{addr: s.addr, size: start - s.addr})
		}
		if tail := s.end() - (start + n); tail > 0 {
			rest = append(rest, span{addr: start + n, size: tail})
		}
		h.free = append(h.free[:i], append(rest, h.free[i+1:]...)...)

		h.live[start] = n
		h.st.Allocs++
		h.st.Live++
		h.st.LiveBytes += n
		return start, nil
	}

	return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
}

// Free releases a block returned by Alloc. Freeing an address that is not
// live is counted in Stats.BadFrees and otherwise ignored.
func (h *Heap) Free(ptr uint64, size, align uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.live[ptr]
	if !ok {
		h.st.BadFrees++
		Logger().Warn("free of address that is not live",
			zap.Uint64("ptr", ptr),
			zap.Uint32("size", size))
		return
	}
	delete(h.live, ptr)
	h.st.Frees++
	h.st.Live--
	h.st.LiveBytes -= n
	h.insert(span{addr: ptr, size: n})
}

func (h *Heap) insert(s span) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].addr > s.addr })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].end() == h.free[i+1].addr {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].end() == h.free[i].addr {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

// Stats returns a snapshot of the counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st
}

// IsLive reports whether ptr is the start of an allocated block.
func (h *Heap) IsLive(ptr uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.live[ptr]
	return ok
}

// FreeBytes returns the number of unallocated bytes.
func (h *Heap) FreeBytes() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n uint64
	for _, s := range h.free {
		n += s.size
	}
	return n
}

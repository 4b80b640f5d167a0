//go:build cgo

package native

/*
#include <stdlib.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/varargs/errors"
	"github.com/wippyai/varargs/heap"
)

// Malloc allocates from the C heap. Pair it with Memory.
type Malloc struct {
	mu   sync.Mutex
	live map[uint64]uint32
	st   heap.Stats
}

// NewMalloc returns a C heap allocator that tracks its live blocks.
func NewMalloc() *Malloc {
	return &Malloc{live: make(map[uint64]uint32)}
}

// Alloc implements varargs.Allocator. Alignments malloc does not honor are
// rejected rather than padded.
func (m *Malloc) Alloc(size, align uint32) (uint64, error) {
	n := size
	if n == 0 {
		n = 1
	}
	p := C.malloc(C.size_t(n))
	if p == nil {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, nil)
	}
	addr := uint64(uintptr(p))
	if align > 1 && addr%uint64(align) != 0 {
		C.free(p)
		return 0, errors.New(errors.PhaseAlloc, errors.KindUnsupported).
			Value(align).
			Detail("malloc returned 0x%x, not aligned to %d", addr, align).
			Build()
	}

	m.mu.Lock()
	m.live[addr] = n
	m.st.Allocs++
	m.st.Live++
	m.st.LiveBytes += uint64(n)
	m.mu.Unlock()
	return addr, nil
}

// Free implements varargs.Allocator. Addresses this allocator did not hand
// out are counted and never passed to free(3).
func (m *Malloc) Free(ptr uint64, size, align uint32) {
	m.mu.Lock()
	n, ok := m.live[ptr]
	if !ok {
		m.st.BadFrees++
		m.mu.Unlock()
		heap.Logger().Warn("free of address malloc did not return",
			zap.Uint64("ptr", ptr),
			zap.Uint32("size", size))
		return
	}
	delete(m.live, ptr)
	m.st.Frees++
	m.st.Live--
	m.st.LiveBytes -= uint64(n)
	m.mu.Unlock()

	C.free(unsafe.Pointer(uintptr(ptr))) //nolint:govet // ptr came from C.malloc
}

// Stats returns the allocator's counters.
func (m *Malloc) Stats() heap.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

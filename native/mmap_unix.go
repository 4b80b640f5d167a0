//go:build linux || darwin || freebsd || netbsd || openbsd

package native

import (
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/wippyai/varargs/errors"
	"github.com/wippyai/varargs/heap"
	"github.com/wippyai/varargs/memory"
)

// Arena is an anonymous private mapping managed by heap.Heap. Addresses
// are real process addresses and every access is bounds-checked against
// the mapping.
type Arena struct {
	*memory.Buffer
	heap   *heap.Heap
	region []byte
	mu     sync.Mutex
	closed bool
}

// NewArena maps size bytes of zeroed read-write memory.
func NewArena(size uint32) (*Arena, error) {
	if size == 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "native arena size must be non-zero")
	}
	region, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, size, 1, err)
	}
	base := Address(region)
	h, err := heap.New(base, size)
	if err != nil {
		return nil, multierr.Append(err, unix.Munmap(region))
	}
	return &Arena{Buffer: memory.BufferOver(base, region), heap: h, region: region}, nil
}

// Alloc implements varargs.Allocator.
func (a *Arena) Alloc(size, align uint32) (uint64, error) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return 0, errors.InvalidState(errors.PhaseAlloc, "native arena is closed")
	}
	return a.heap.Alloc(size, align)
}

// Free implements varargs.Allocator.
func (a *Arena) Free(ptr uint64, size, align uint32) {
	a.heap.Free(ptr, size, align)
}

// Stats returns the arena's allocation counters.
func (a *Arena) Stats() heap.Stats { return a.heap.Stats() }

// Close unmaps the region. Blocks still live are reported in the error.
// Close is idempotent.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var err error
	if st := a.heap.Stats(); st.Live > 0 {
		err = errors.New(errors.PhaseRelease, errors.KindInvalidState).
			Value(st.Live).
			Detail("%d blocks (%d bytes) still live at close", st.Live, st.LiveBytes).
			Build()
	}
	a.Buffer = memory.BufferOver(a.heap.Base(), nil)
	return multierr.Append(err, unix.Munmap(a.region))
}

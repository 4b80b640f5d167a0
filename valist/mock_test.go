package valist

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/varargs"
	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/memory"
)

const arenaBase = 0x10000

// countingAlloc wraps an allocator, counts calls and fails the failAt-th
// Alloc when failAt is non-zero.
type countingAlloc struct {
	varargs.Allocator
	allocs int
	frees  int
	failAt int
}

func (c *countingAlloc) Alloc(size, align uint32) (uint64, error) {
	c.allocs++
	if c.failAt != 0 && c.allocs == c.failAt {
		return 0, stderrors.New("exhausted")
	}
	return c.Allocator.Alloc(size, align)
}

func (c *countingAlloc) Free(ptr uint64, size, align uint32) {
	c.frees++
	c.Allocator.Free(ptr, size, align)
}

// failingMemory fails the failAt-th Write.
type failingMemory struct {
	varargs.Memory
	writes int
	failAt int
}

func (m *failingMemory) Write(addr uint64, data []byte) error {
	m.writes++
	if m.writes == m.failAt {
		return stderrors.New("write fault")
	}
	return m.Memory.Write(addr, data)
}

type fixture struct {
	arena  *memory.Arena
	alloc  *countingAlloc
	packer *Packer
}

func newFixture(t *testing.T, p abi.Platform) *fixture {
	t.Helper()
	arena, err := memory.NewArena(arenaBase, 1<<16)
	if err != nil {
		t.Fatal(err)
	}
	alloc := &countingAlloc{Allocator: arena}
	packer, err := NewPacker(Config{Platform: p, Memory: arena, Allocator: alloc})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{arena: arena, alloc: alloc, packer: packer}
}

// assertClean checks that every block the arena handed out came back once.
func (f *fixture) assertClean(t *testing.T) {
	t.Helper()
	st := f.arena.Stats()
	if st.Live != 0 || st.BadFrees != 0 {
		t.Errorf("arena stats = %+v", st)
	}
	if f.alloc.allocs-f.alloc.frees != failedAllocs(f.alloc) {
		t.Errorf("allocs = %d, frees = %d", f.alloc.allocs, f.alloc.frees)
	}
}

func failedAllocs(c *countingAlloc) int {
	if c.failAt != 0 && c.allocs >= c.failAt {
		return 1
	}
	return 0
}

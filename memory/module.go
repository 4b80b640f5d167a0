package memory

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/varargs/errors"
	"github.com/wippyai/varargs/heap"
)

// HostModule is the module name allocator guests import from.
const HostModule = "env"

// hostMallocAlign is the alignment the host malloc guarantees.
const hostMallocAlign = 8

const maxGuestPages = 127

const (
	secType   = 1
	secImport = 2
	secMemory = 5
	secExport = 7

	externFunc   = 0x00
	externMemory = 0x02

	valI32 = 0x7f
)

var wasmHeader = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

// MemoryModule returns a guest that defines and exports "memory" with the
// given number of 64 KiB pages.
func MemoryModule(pages uint8) ([]byte, error) {
	if err := checkPages(pages); err != nil {
		return nil, err
	}
	bin := append([]byte(nil), wasmHeader...)
	bin = section(bin, secMemory, vec(1, limits(pages)))
	bin = section(bin, secExport, vec(1, export("memory", externMemory, 0)))
	return bin, nil
}

// AllocatorModule returns a guest that imports malloc, free and
// cabi_realloc from HostModule and re-exports them next to its own
// "memory". Wrapping its exports exercises the same call path as a guest
// that links its own allocator.
func AllocatorModule(pages uint8) ([]byte, error) {
	if err := checkPages(pages); err != nil {
		return nil, err
	}
	types := vec(3,
		funcType([]byte{valI32}, []byte{valI32}),
		funcType([]byte{valI32}, nil),
		funcType([]byte{valI32, valI32, valI32, valI32}, []byte{valI32}),
	)
	imports := vec(3,
		importFunc(HostModule, "malloc", 0),
		importFunc(HostModule, "free", 1),
		importFunc(HostModule, "cabi_realloc", 2),
	)
	exports := vec(4,
		export("memory", externMemory, 0),
		export("malloc", externFunc, 0),
		export("free", externFunc, 1),
		export("cabi_realloc", externFunc, 2),
	)
	bin := append([]byte(nil), wasmHeader...)
	bin = section(bin, secType, types)
	bin = section(bin, secImport, imports)
	bin = section(bin, secMemory, vec(1, limits(pages)))
	bin = section(bin, secExport, exports)
	return bin, nil
}

// InstantiateHostAllocator registers HostModule with malloc, free and
// cabi_realloc backed by h. Addresses from h are interpreted in the memory
// of whichever guest imports them, so h must cover that guest's range.
// cabi_realloc only allocates and frees; growing a live block returns NULL.
func InstantiateHostAllocator(ctx context.Context, rt wazero.Runtime, h *heap.Heap) (api.Module, error) {
	if h == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "nil host heap")
	}
	mod, err := rt.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, size uint32) uint32 {
			p, err := h.Alloc(size, hostMallocAlign)
			if err != nil {
				return 0
			}
			return uint32(p)
		}).
		Export("malloc").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, ptr uint32) {
			if ptr != 0 {
				h.Free(uint64(ptr), 0, 0)
			}
		}).
		Export("free").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, old, oldSize, align, newSize uint32) uint32 {
			switch {
			case newSize == 0:
				if old != 0 {
					h.Free(uint64(old), oldSize, align)
				}
				return 0
			case old != 0:
				return 0
			}
			p, err := h.Alloc(newSize, align)
			if err != nil {
				return 0
			}
			return uint32(p)
		}).
		Export("cabi_realloc").
		Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidState, err, "instantiate host allocator")
	}
	return mod, nil
}

func checkPages(pages uint8) error {
	if pages == 0 || pages > maxGuestPages {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(pages).
			Detail("guest memory of %d pages, want 1 to %d", pages, maxGuestPages).
			Build()
	}
	return nil
}

func section(bin []byte, id byte, body []byte) []byte {
	bin = append(bin, id)
	bin = uleb(bin, uint32(len(body)))
	return append(bin, body...)
}

func vec(n uint32, items ...[]byte) []byte {
	out := uleb(nil, n)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func name(s string) []byte {
	return append(uleb(nil, uint32(len(s))), s...)
}

func limits(pages uint8) []byte {
	return uleb([]byte{0x00}, uint32(pages))
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, vec(uint32(len(params)), params)...)
	return append(out, vec(uint32(len(results)), results)...)
}

func importFunc(module, field string, typeIdx uint32) []byte {
	out := append(name(module), name(field)...)
	out = append(out, externFunc)
	return uleb(out, typeIdx)
}

func export(field string, kind byte, idx uint32) []byte {
	out := append(name(field), kind)
	return uleb(out, idx)
}

func uleb(out []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

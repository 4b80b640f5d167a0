package main

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"go.uber.org/multierr"

	"github.com/wippyai/varargs"
	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/heap"
	"github.com/wippyai/varargs/memory"
)

// guestHeapBase keeps the first KiB of guest memory out of the arena so no
// text pointer lands near NULL.
const guestHeapBase = 1024

const wasmPageSize = 65536

// backend is the native side lists are packed into.
type backend struct {
	mem   varargs.Memory
	alloc varargs.Allocator
	stats func() heap.Stats
	// platform is what the backend forces, or the zero value.
	platform abi.Platform
	closers  []func() error
	name     string
}

func (b *backend) Close() error {
	var err error
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i]())
	}
	b.closers = nil
	return err
}

func openBackend(ctx context.Context, p profile) (*backend, error) {
	switch p.Backend {
	case "arena":
		a, err := memory.NewArena(p.Arena.Base, p.Arena.Size)
		if err != nil {
			return nil, err
		}
		return &backend{name: "arena", mem: a, alloc: a, stats: a.Stats}, nil
	case "wasm":
		return openWasm(ctx, p.WasmPages)
	case "wasm-malloc":
		return openWasmAllocator(ctx, p.WasmPages, false)
	case "wasm-realloc":
		return openWasmAllocator(ctx, p.WasmPages, true)
	case "native":
		return openNative(p.Arena.Size)
	}
	return nil, fmt.Errorf("unknown backend %q", p.Backend)
}

func openWasm(ctx context.Context, pages uint8) (*backend, error) {
	bin, err := memory.MemoryModule(pages)
	if err != nil {
		return nil, err
	}
	rt := wazero.NewRuntime(ctx)
	b := &backend{name: "wasm", platform: abi.Wasm32}
	b.closers = append(b.closers, func() error { return rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, bin)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("instantiate guest: %w", err), b.Close())
	}
	g, err := memory.NewGuestArena(mod.ExportedMemory("memory"), guestHeapBase)
	if err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	b.mem, b.alloc, b.stats = g, g, g.Stats
	return b, nil
}

// openWasmAllocator packs through allocator exports of a guest, either
// malloc/free or cabi_realloc. The host heap behind them spans the guest
// memory above guestHeapBase.
func openWasmAllocator(ctx context.Context, pages uint8, realloc bool) (*backend, error) {
	bin, err := memory.AllocatorModule(pages)
	if err != nil {
		return nil, err
	}
	h, err := heap.New(guestHeapBase, uint32(pages)*wasmPageSize-guestHeapBase)
	if err != nil {
		return nil, err
	}
	rt := wazero.NewRuntime(ctx)
	b := &backend{name: "wasm-malloc", platform: abi.Wasm32, stats: h.Stats}
	b.closers = append(b.closers, func() error { return rt.Close(ctx) })

	if _, err := memory.InstantiateHostAllocator(ctx, rt, h); err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	mod, err := rt.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName("allocator"))
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("instantiate guest: %w", err), b.Close())
	}
	b.mem = memory.WrapMemory(mod.ExportedMemory("memory"))
	if realloc {
		b.name = "wasm-realloc"
		b.alloc = memory.WrapRealloc(ctx, mod.ExportedFunction("cabi_realloc"))
	} else {
		b.alloc = memory.WrapAllocator(ctx, mod.ExportedFunction("malloc"), mod.ExportedFunction("free"))
	}
	return b, nil
}

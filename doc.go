// Package varargs builds C variadic argument lists in native memory.
//
// Given an ordered sequence of typed values, the library produces one
// contiguous block laid out the way a platform's C calling convention expects
// a variadic argument list, so the block's address can be handed to a native
// variadic function such as a vsnprintf-style formatting entry point.
//
// # Architecture Overview
//
//	varargs/         Root package with the Memory and Allocator interfaces
//	├── abi/         Platform pointer width, byte order and promotion rules
//	├── charset/     Encoding policy for string secondary allocations
//	├── vararg/      Argument variants, footprints and the conversion table
//	├── valist/      Argument list packing, ownership and read-back
//	├── heap/        Region allocator with allocation counters
//	├── memory/      Slice-backed arenas and wazero guest memory adapters
//	├── native/      Host memory: unsafe access, mmap arenas, C malloc
//	├── errors/      Structured error types
//	└── cmd/vapack/  CLI that prints the packed layout
//
// # Quick Start
//
//	arena, err := memory.NewArena(0x10000, 1<<20)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	packer, err := valist.NewPacker(valist.Config{
//	    Platform:  abi.LP64,
//	    Memory:    arena,
//	    Allocator: arena,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	args, err := vararg.FromValues(abi.LP64, int32(5), int64(9_999_999_999), "hi")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = packer.With(args, func(l *valist.List) error {
//	    return callNative(format, l.Handle()) // the list is valid only here
//	})
//
// # Layout
//
// Slots are packed back to back in input order with no padding:
//
//	Variant   Footprint
//	──────────────────────
//	Int32     4
//	Int64     8
//	Double    8
//	Single    4 (promoted to Double by the predefined platforms)
//	Decimal   8 (narrowed to double)
//	Char      pointer width
//	String    pointer width
//
// String and Char slots hold the address of a secondary allocation with the
// NUL-terminated encoded text. Releasing the list frees every secondary
// allocation and then the buffer itself.
//
// # Thread Safety
//
// Arguments and lists are single-use and not safe for concurrent use. Packers
// and the heap allocator may be shared; each concurrent call site packs its
// own list.
package varargs

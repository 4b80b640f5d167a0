package abi

import (
	"encoding/binary"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/wippyai/varargs/errors"
)

// Fixed slot widths in bytes.
const (
	SizeInt32  = 4
	SizeInt64  = 8
	SizeDouble = 8
	SizeSingle = 4
)

// MaxSlotAlign caps the alignment requested for a packed buffer.
const MaxSlotAlign = 8

// Platform is a target calling convention.
type Platform struct {
	ByteOrder     binary.ByteOrder
	Name          string
	PointerSize   uint32
	PromoteSingle bool
}

var (
	LP64 = Platform{
		Name:          "lp64",
		PointerSize:   8,
		ByteOrder:     binary.LittleEndian,
		PromoteSingle: true,
	}
	LP64BE = Platform{
		Name:          "lp64be",
		PointerSize:   8,
		ByteOrder:     binary.BigEndian,
		PromoteSingle: true,
	}
	ILP32 = Platform{
		Name:          "ilp32",
		PointerSize:   4,
		ByteOrder:     binary.LittleEndian,
		PromoteSingle: true,
	}
	Wasm32 = Platform{
		Name:          "wasm32",
		PointerSize:   4,
		ByteOrder:     binary.LittleEndian,
		PromoteSingle: true,
	}
)

var host = sync.OnceValue(func() Platform {
	return Platform{
		Name:          "host",
		PointerSize:   uint32(unsafe.Sizeof(uintptr(0))),
		ByteOrder:     detectNativeEndian(),
		PromoteSingle: true,
	}
})

// Host returns the platform of the running process. It is computed once.
func Host() Platform {
	return host()
}

func detectNativeEndian() binary.ByteOrder {
	var x uint16 = 0x1
	b := *(*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 0x1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Lookup resolves a platform by name (case-insensitive).
func Lookup(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lp64", "amd64", "arm64", "x86_64":
		return LP64, nil
	case "lp64be", "s390x", "ppc64":
		return LP64BE, nil
	case "ilp32", "386", "arm":
		return ILP32, nil
	case "wasm32", "wasm":
		return Wasm32, nil
	case "host", "":
		return Host(), nil
	}
	return Platform{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Value(name).
		Detail("unknown platform %q", name).
		Build()
}

// Validate reports whether p describes a supported convention.
func (p Platform) Validate() error {
	if p.PointerSize != 4 && p.PointerSize != 8 {
		return errors.Unsupported(errors.PhaseConfig, "pointer width "+itoa(p.PointerSize))
	}
	if p.ByteOrder == nil {
		return errors.InvalidInput(errors.PhaseConfig, "platform has no byte order")
	}
	return nil
}

// IsZero reports whether p is the zero Platform.
func (p Platform) IsZero() bool {
	return p.PointerSize == 0 && p.ByteOrder == nil && p.Name == ""
}

// PutPointer encodes addr into dst using the platform's pointer width.
// dst must be at least PointerSize bytes.
func (p Platform) PutPointer(dst []byte, addr uint64) {
	if p.PointerSize == 4 {
		p.ByteOrder.PutUint32(dst, uint32(addr))
		return
	}
	p.ByteOrder.PutUint64(dst, addr)
}

// Pointer decodes a pointer-width address from src.
func (p Platform) Pointer(src []byte) uint64 {
	if p.PointerSize == 4 {
		return uint64(p.ByteOrder.Uint32(src))
	}
	return p.ByteOrder.Uint64(src)
}

// FitsPointer reports whether addr is representable in a pointer slot.
func (p Platform) FitsPointer(addr uint64) bool {
	return p.PointerSize == 8 || addr <= 0xFFFFFFFF
}

func (p Platform) String() string {
	if p.Name != "" {
		return p.Name
	}
	return "custom/" + itoa(p.PointerSize*8)
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

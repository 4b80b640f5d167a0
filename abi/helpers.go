package abi

import (
	"math"
	"reflect"
)

// SafeAddU32 returns a+b, or false when the sum wraps.
func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// AlignTo64 rounds addr up to a multiple of align, a power of two.
// Zero leaves addr unchanged.
func AlignTo64(addr uint64, align uint32) uint64 {
	if align == 0 {
		return addr
	}
	a := uint64(align)
	return (addr + a - 1) &^ (a - 1)
}

// IsPowerOfTwo reports whether v is a non-zero power of two.
func IsPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// MaxAlloc bounds a single native allocation.
const MaxAlloc = 1 << 30

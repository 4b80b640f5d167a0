// Package abi describes the target platforms a variadic argument list is
// packed for.
//
// A Platform fixes the three things the packed layout depends on: the pointer
// width (size of String and Char slots, and of the pointer-sized integer row of
// the conversion table), the byte order of every slot, and whether
// single-precision floats are promoted to double as C does for arguments
// passed through an ellipsis.
//
// # Predefined Platforms
//
//	Name     Pointer  Order   Single
//	─────────────────────────────────
//	lp64     8        little  double
//	lp64be   8        big     double
//	ilp32    4        little  double
//	wasm32   4        little  double
//	host     detected detected double
//
// Slots are packed back to back. No platform here inserts padding between
// slots; a slot's alignment is at most its own width.
package abi

// Package vararg defines the argument variants of a native variadic call.
//
// An Arg is one call-site value with a fixed footprint in the packed buffer
// and a write operation that emits exactly that many bytes:
//
//	Kind      Footprint       Slot content
//	───────────────────────────────────────────────────
//	int32     4               two's complement
//	int64     8               two's complement
//	double    8               IEEE 754 binary64
//	single    4               IEEE 754 binary32
//	decimal   8               binary64, narrowed
//	char      pointer width   address of one-character text
//	string    pointer width   address of NUL-terminated text
//
// # Conversion Table
//
// From maps Go values onto variants:
//
//	int32                         → int32
//	int64                         → int64
//	int                           → int32 or int64 by pointer width
//	float64                       → double
//	float32                       → double when promoted, else single
//	decimal.Decimal, *big.Float,
//	*big.Rat                      → double (lossy, original kept as Value)
//	Rune                          → string (one character)
//	string                        → string
//
// Any other Go type is rejected with an invalid_input error. rune is an alias
// of int32 in Go, so characters go through the Rune type or the Char
// constructor.
//
// # Lifecycle
//
// String and Char arguments allocate their text during Write and keep the
// allocation until Release. Write after Release and a second Write are
// invalid_state errors. Release is idempotent and safe before Write.
package vararg

// Package errors provides structured error types for argument packing.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). An Error carries the argument index path, the Go type involved,
// the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindOverflow).
//		Path("3").
//		GoType("int").
//		Value(v).
//		Detail("int does not fit a 4-byte word").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AllocationFailed(errors.PhaseAlloc, size, align, cause)
//	err := errors.OutOfBounds(errors.PhaseWrite, addr, 8)
//
// IsKind matches a kind anywhere in the cause chain. All errors implement
// the standard error interface and support errors.Is/As.
package errors

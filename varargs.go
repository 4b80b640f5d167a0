package varargs

// Memory is the native address space a packed argument list is written into.
// Addresses are absolute; 0 is the null address.
type Memory interface {
	Read(addr uint64, length uint32) ([]byte, error)
	Write(addr uint64, data []byte) error
}

// Allocator allocates blocks of native memory.
// A successful Alloc never returns the null address.
type Allocator interface {
	Alloc(size, align uint32) (uint64, error)
	Free(ptr uint64, size, align uint32)
}

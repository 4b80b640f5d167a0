// Package valist packs argument sequences into one native buffer.
//
// A Packer holds the target (memory, allocator, platform, encoding). Pack
// sums the footprints, makes one allocation aligned to the widest slot and
// writes every argument back to back at a running cursor:
//
//	packer, _ := valist.NewPacker(valist.Config{Memory: arena, Allocator: arena})
//	list, err := packer.PackValues(int32(5), "hi")
//	if err != nil {
//	    return err
//	}
//	defer list.Release()
//	callNative(list.Handle())
//
// A List owns its arguments. Release frees each argument's secondary text
// allocation and then the buffer, and is idempotent. A list packed from an
// empty sequence allocates nothing and has a zero handle.
//
// With scopes one native call:
//
//	err := packer.With(args, func(l *valist.List) error {
//	    return callNative(l.Handle())
//	})
//
// Lists that become unreachable without Release are counted by Leaked and
// logged; nothing is freed on the caller's behalf.
package valist

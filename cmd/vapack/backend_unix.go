//go:build linux || darwin || freebsd || netbsd || openbsd

package main

import (
	"github.com/wippyai/varargs/native"
)

func openNative(size uint32) (*backend, error) {
	a, err := native.NewArena(size)
	if err != nil {
		return nil, err
	}
	return &backend{
		name:    "native",
		mem:     a,
		alloc:   a,
		stats:   a.Stats,
		closers: []func() error{a.Close},
	}, nil
}

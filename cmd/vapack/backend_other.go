//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package main

import (
	"github.com/wippyai/varargs/errors"
)

func openNative(uint32) (*backend, error) {
	return nil, errors.Unsupported(errors.PhaseConfig, "native backend on this platform")
}

package valist

import (
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
)

var leaked atomic.Uint64

// Leaked returns how many lists were garbage collected without Release.
func Leaked() uint64 { return leaked.Load() }

type leakInfo struct {
	handle uint64
	size   uint32
	args   int
}

// track registers l with the garbage collector. The cleanup only reports;
// the memory behind a leaked handle may still be referenced by native code.
func track(l *List) {
	info := leakInfo{handle: l.handle, size: l.size, args: len(l.args)}
	l.cleanup = runtime.AddCleanup(l, reportLeak, info)
	l.tracked = true
}

func reportLeak(info leakInfo) {
	leaked.Add(1)
	Logger().Warn("argument list collected without Release",
		zap.Uint64("handle", info.handle),
		zap.Uint32("size", info.size),
		zap.Int("args", info.args))
}

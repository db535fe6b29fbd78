//go:build linux && cgo

package native

/*
#include <stdint.h>

typedef long (*hijack_fn6)(long, long, long, long, long, long);

static long hijack_call6(uintptr_t fn, long a0, long a1, long a2, long a3, long a4, long a5) {
	return ((hijack_fn6)fn)(a0, a1, a2, a3, a4, a5);
}
*/
import "C"

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/resolve"
	"github.com/sliverarmory/hijack/sysno"
)

// Libc calls the C runtime's own implementation of each call through the
// addresses held in a hook registry.
type Libc struct {
	reg *resolve.Registry
}

func NewLibc(reg *resolve.Registry) *Libc {
	return &Libc{reg: reg}
}

// Init fills the registry for the descriptor keyed calls. Call it once at
// attach time, before the first interposed call.
func (l *Libc) Init() {
	l.reg.Init()
}

func (l *Libc) Call(c sysno.Call, a sysno.Args) (uintptr, unix.Errno) {
	fn := l.reg.Lookup(c)
	if fn == 0 {
		return ^uintptr(0), unix.ENOSYS
	}
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	r, err := C.hijack_call6(C.uintptr_t(fn),
		C.long(w[0]), C.long(w[1]), C.long(w[2]),
		C.long(w[3]), C.long(w[4]), C.long(w[5]))
	return libcResult(int64(r), err)
}

var _ Host = (*Libc)(nil)

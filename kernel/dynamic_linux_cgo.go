//go:build linux && cgo

package kernel

/*
#include <stdint.h>

typedef long (*hijack_kernel_fn)(long, long *);

static long hijack_kernel_call(uintptr_t fn, long no, long a0, long a1, long a2, long a3, long a4, long a5) {
	long params[6] = {a0, a1, a2, a3, a4, a5};
	return ((hijack_kernel_fn)fn)(no, params);
}
*/
import "C"

import (
	"fmt"
	"runtime"

	"github.com/chainguard-dev/clog"

	"github.com/sliverarmory/hijack/resolve"
	"github.com/sliverarmory/hijack/sysno"
)

// DefaultSymbol is the library kernel's exported syscall entry point.
const DefaultSymbol = "lkl_syscall"

// Dynamic calls a `long fn(long no, long *params)` entry point found in the
// process image.
type Dynamic struct {
	symbol string
	fn     uintptr
}

// NewDynamic looks symbol up with r; an empty symbol means DefaultSymbol.
func NewDynamic(r resolve.Resolver, symbol string) (*Dynamic, error) {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	fn, err := r.Resolve(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoEntryPoint, symbol, err)
	}
	if fn == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEntryPoint, symbol)
	}
	clog.Debugf("hijack: library kernel entry %s at %#x", symbol, fn)
	return &Dynamic{symbol: symbol, fn: fn}, nil
}

func (d *Dynamic) Symbol() string {
	return d.symbol
}

// Syscall pins the pointer slots of a while the library kernel runs.
func (d *Dynamic) Syscall(nr sysno.NR, a sysno.Args) int64 {
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	return int64(C.hijack_kernel_call(C.uintptr_t(d.fn), C.long(nr),
		C.long(w[0]), C.long(w[1]), C.long(w[2]),
		C.long(w[3]), C.long(w[4]), C.long(w[5])))
}

var _ Gateway = (*Dynamic)(nil)

//go:build linux && cgo

// Command preload is the LD_PRELOAD library. Build it with
//
//	go build -buildmode=c-shared -o libhijack.so ./preload
//
// and load it ahead of libc in a process that also links the library
// kernel. The library kernel must be booted before the first call on one of
// its descriptors.
//
// The library attaches once, from package init and again from the first
// interposed call. A shared Go library runs init on a thread of its own, so
// a process that exits without making an interposed call may do so before
// a failed attach aborts it. Any interposed call waits for init and so
// observes the abort.
package main

/*
#include "hijack.h"
*/
import "C"

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack"
	"github.com/sliverarmory/hijack/internal/config"
	"github.com/sliverarmory/hijack/kernel"
	"github.com/sliverarmory/hijack/native"
	"github.com/sliverarmory/hijack/resolve"
	"github.com/sliverarmory/hijack/sysno"
)

var (
	attachOnce sync.Once
	router     *hijack.Router
)

func init() {
	attached()
}

// attached returns the router, attaching on first use. A failed attach is
// fatal. Test binaries never attach: they link the interposed names but
// not the library kernel.
func attached() *hijack.Router {
	attachOnce.Do(func() {
		if testing.Testing() {
			return
		}
		r, err := attach()
		if err != nil {
			clog.ErrorContextf(context.Background(), "hijack: attach: %v", err)
			os.Exit(resolve.AbortStatus)
		}
		router = r
	})
	return router
}

func attach() (*hijack.Router, error) {
	if n := int(C.HIJACK_NUM_CALLS); n != int(sysno.NumCalls) {
		return nil, fmt.Errorf("call table has %d entries, want %d", n, sysno.NumCalls)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(cfg.Handler()))

	var res resolve.Resolver = resolve.Next{}
	if cfg.Resolver == config.ResolverELF {
		res = &resolve.ELF{}
	}
	host := native.NewLibc(resolve.NewRegistry(res, nil))
	host.Init()

	gw, err := kernel.NewDynamic(resolve.Global{}, cfg.GatewaySymbol)
	if err != nil {
		return nil, err
	}
	clog.Debugf("hijack: attached, resolver %s, gateway %s", cfg.Resolver, gw.Symbol())

	return hijack.New(hijack.Config{Host: host, Gateway: gw})
}

//export hijack_dispatch
func hijack_dispatch(call C.int, a0, a1, a2, a3, a4, a5 C.long, errp *C.int) C.long {
	n, errno := dispatch(sysno.Call(call), sysno.Args{
		sysno.Word(a0), sysno.Word(a1), sysno.Word(a2),
		sysno.Word(a3), sysno.Word(a4), sysno.Word(a5),
	})
	if errno != 0 {
		*errp = C.int(errno)
		return -1
	}
	return C.long(n)
}

// dispatch runs one interposed call. Failures always carry an error number.
func dispatch(c sysno.Call, a sysno.Args) (int, unix.Errno) {
	r := attached()
	if r == nil {
		return -1, unix.ENOSYS
	}
	n, err := r.Dispatch(c, a)
	if err != nil {
		errno, ok := err.(unix.Errno)
		if !ok || errno == 0 {
			errno = unix.EIO
		}
		return -1, errno
	}
	return n, 0
}

func main() {}

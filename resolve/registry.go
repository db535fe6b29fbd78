// Package resolve finds the original native implementation of each
// interposed entry point and caches it for the life of the process.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/chainguard-dev/clog"
	"github.com/sliverarmory/hijack/sysno"
)

var ErrNotFound = errors.New("symbol not found")

// Resolver returns the address of the next definition of a native symbol
// below the interposer in the process's load order.
type Resolver interface {
	Resolve(name string) (uintptr, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (uintptr, error)

func (f ResolverFunc) Resolve(name string) (uintptr, error) {
	return f(name)
}

// AbortStatus is the exit status of a process killed by SIGABRT.
const AbortStatus = 134

// Abort is the default fatal action. It logs err and exits with
// AbortStatus.
func Abort(call sysno.Call, err error) {
	clog.ErrorContextf(context.Background(), "hijack: resolve %s: %v", call, err)
	os.Exit(AbortStatus)
}

// Registry is the hook registry: one write-once slot per call holding the
// address of the call's native implementation. Slots are filled without
// locks; concurrent first lookups may resolve the same symbol twice, and
// both store the same address.
type Registry struct {
	resolver Resolver
	fatal    func(sysno.Call, error)
	slots    [sysno.NumCalls]atomic.Uintptr
	initOnce sync.Once
}

// NewRegistry returns an empty registry backed by r. A nil fatal action
// means Abort.
func NewRegistry(r Resolver, fatal func(sysno.Call, error)) *Registry {
	if fatal == nil {
		fatal = Abort
	}
	return &Registry{resolver: r, fatal: fatal}
}

// Init resolves every descriptor keyed call. It must run once the dynamic
// linker has finished relocating the process image and before the first
// interposed call; later calls are no-ops.
func (reg *Registry) Init() {
	reg.initOnce.Do(func() {
		for _, c := range sysno.All() {
			if c.FDKeyed() {
				reg.Lookup(c)
			}
		}
		clog.Debugf("hijack: resolved %d descriptor keyed calls", reg.count())
	})
}

// Lookup returns the cached native address of c, resolving it on first use.
// A failed resolution invokes the fatal action; if that returns, Lookup
// returns 0.
func (reg *Registry) Lookup(c sysno.Call) uintptr {
	if !c.Valid() || c.KernelOnly() {
		reg.fatal(c, fmt.Errorf("%s has no native implementation", c))
		return 0
	}
	slot := &reg.slots[c]
	if addr := slot.Load(); addr != 0 {
		return addr
	}
	addr, err := reg.resolver.Resolve(c.String())
	if err == nil && addr == 0 {
		err = fmt.Errorf("%s: %w", c, ErrNotFound)
	}
	if err != nil {
		reg.fatal(c, err)
		return 0
	}
	if slot.CompareAndSwap(0, addr) {
		clog.Debugf("hijack: %s -> %#x", c, addr)
	}
	return slot.Load()
}

// Resolved reports the cached address of c without resolving it.
func (reg *Registry) Resolved(c sysno.Call) (uintptr, bool) {
	if !c.Valid() {
		return 0, false
	}
	addr := reg.slots[c].Load()
	return addr, addr != 0
}

func (reg *Registry) count() int {
	n := 0
	for i := range reg.slots {
		if reg.slots[i].Load() != 0 {
			n++
		}
	}
	return n
}

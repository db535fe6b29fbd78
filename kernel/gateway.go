// Package kernel is the boundary to the library kernel's syscall entry
// point.
package kernel

import (
	"errors"

	"github.com/sliverarmory/hijack/sysno"
)

var ErrNoEntryPoint = errors.New("library kernel entry point not found")

// Gateway is the library kernel's single syscall entry point. A negative
// status is the negated error number; anything else is the call's result.
//
// Pointer arguments arrive as pointer slots and may be read or written in
// place. The library kernel must have its host operations installed and be
// booted before the first call.
type Gateway interface {
	Syscall(nr sysno.NR, args sysno.Args) int64
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(nr sysno.NR, args sysno.Args) int64

func (f GatewayFunc) Syscall(nr sysno.NR, args sysno.Args) int64 {
	return f(nr, args)
}

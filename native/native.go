// Package native invokes the host's own implementation of an interposed
// call.
package native

import (
	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/sysno"
)

// Host runs a call against the host operating system with the arguments
// untouched. A non-zero Errno reports failure.
type Host interface {
	Call(c sysno.Call, args sysno.Args) (uintptr, unix.Errno)
}

// Func is one native entry point.
type Func func(args sysno.Args) (uintptr, unix.Errno)

// Table is a Host backed by an explicit function per call, for embedders
// whose dynamic loader cannot look up the next definition of a symbol.
// Missing entries fail with ENOSYS.
type Table [sysno.NumCalls]Func

func (t *Table) Call(c sysno.Call, args sysno.Args) (uintptr, unix.Errno) {
	if !c.Valid() || t[c] == nil {
		return ^uintptr(0), unix.ENOSYS
	}
	return t[c](args)
}

// libcResult maps a C runtime return value and the errno captured with it
// to the Host convention. A failure that left errno clear is reported as
// EIO so callers never see -1 as a result.
func libcResult(r int64, err error) (uintptr, unix.Errno) {
	if r != -1 {
		return uintptr(r), 0
	}
	if errno, ok := err.(unix.Errno); ok && errno != 0 {
		return ^uintptr(0), errno
	}
	return ^uintptr(0), unix.EIO
}

var _ Host = (*Table)(nil)

package sysno

import (
	"runtime"
	"unsafe"
)

// Arg is one argument slot. It holds either an integer word or a pointer.
// Pointers stay typed as unsafe.Pointer until the call leaves Go, so the
// memory they reference is kept alive and is never addressed through a
// stale copy.
type Arg struct {
	word uintptr
	ptr  unsafe.Pointer
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Word returns an integer slot. Signed values are sign extended.
func Word[T integer](v T) Arg { return Arg{word: uintptr(v)} }

// Ptr returns a pointer slot.
func Ptr(p unsafe.Pointer) Arg { return Arg{ptr: p} }

// Uintptr returns the slot as a machine word.
func (a Arg) Uintptr() uintptr {
	if a.ptr != nil {
		return uintptr(a.ptr)
	}
	return a.word
}

// Int returns the low 32 bits of the slot as a C int.
func (a Arg) Int() int { return int(int32(a.Uintptr())) }

// Pointer returns the slot as a pointer. A word slot only ever carries an
// address handed in from C, never one into Go memory.
func (a Arg) Pointer() unsafe.Pointer {
	if a.ptr != nil {
		return a.ptr
	}
	return unsafe.Pointer(a.word)
}

// IsPtr reports whether the slot was built with Ptr.
func (a Arg) IsPtr() bool { return a.ptr != nil }

// Args is the fixed six slot argument vector handed to a syscall entry
// point. Unused trailing slots are ignored by the callee.
type Args [6]Arg

// Words pins every pointer slot with p and returns the vector as machine
// words for a call that leaves Go. The words are valid until p.Unpin.
func (a *Args) Words(p *runtime.Pinner) [6]uintptr {
	var w [6]uintptr
	for i, s := range a {
		if s.ptr != nil {
			p.Pin(s.ptr)
			w[i] = uintptr(s.ptr)
			continue
		}
		w[i] = s.word
	}
	return w
}

//go:build linux && cgo

package resolve

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>
#include <stdint.h>

static uintptr_t hijack_dlsym_next(const char *name) {
	return (uintptr_t)dlsym(RTLD_NEXT, name);
}

static uintptr_t hijack_dlsym_default(const char *name) {
	return (uintptr_t)dlsym(RTLD_DEFAULT, name);
}

static const char *hijack_dlerror(void) {
	return dlerror();
}
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// Next resolves symbols with dlsym(RTLD_NEXT, ...): the lookup starts after
// the object that contains this code, so the interposer never finds itself.
type Next struct{}

func (Next) Resolve(name string) (uintptr, error) {
	return dlsym(name, true)
}

// Global resolves symbols with dlsym(RTLD_DEFAULT, ...), the first
// definition in the global scope.
type Global struct{}

func (Global) Resolve(name string) (uintptr, error) {
	return dlsym(name, false)
}

func dlsym(name string, next bool) (uintptr, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsRune(name, '\x00') {
		return 0, fmt.Errorf("invalid symbol name %q", name)
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	// clear stale dlerror
	_ = C.hijack_dlerror()
	var addr C.uintptr_t
	if next {
		addr = C.hijack_dlsym_next(cName)
	} else {
		addr = C.hijack_dlsym_default(cName)
	}
	if addr == 0 {
		if msg := C.hijack_dlerror(); msg != nil {
			return 0, fmt.Errorf("dlsym(%s): %s: %w", name, C.GoString(msg), ErrNotFound)
		}
		return 0, fmt.Errorf("dlsym(%s): %w", name, ErrNotFound)
	}
	return uintptr(addr), nil
}

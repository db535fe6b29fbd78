//go:build !linux

package resolve

import "errors"

var errUnsupported = errors.New("resolve: native symbol lookup is only supported on linux")

// ELF is unavailable off linux.
type ELF struct{}

func (*ELF) Library() (string, uintptr, error) {
	return "", 0, errUnsupported
}

func (*ELF) Resolve(string) (uintptr, error) {
	return 0, errUnsupported
}

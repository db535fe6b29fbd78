//go:build linux && cgo

package cgobootstrap

/*
#include <stdlib.h>
*/
import "C"

var _ = C.int(0)

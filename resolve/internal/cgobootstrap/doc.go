// Package cgobootstrap links the C runtime into cgo builds so that its image
// is mapped and resolvable even when nothing else in the binary uses cgo.
package cgobootstrap

//go:build linux && cgo

package kernel

import (
	"errors"
	"testing"

	"github.com/sliverarmory/hijack/resolve"
)

func TestNewDynamicMissingSymbol(t *testing.T) {
	_, err := NewDynamic(resolve.Global{}, "hijack_no_such_kernel")
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Fatalf("NewDynamic = %v, want ErrNoEntryPoint", err)
	}
	if !errors.Is(err, resolve.ErrNotFound) {
		t.Fatalf("NewDynamic = %v, want the resolver error wrapped", err)
	}
}

func TestNewDynamicZeroAddress(t *testing.T) {
	zero := resolve.ResolverFunc(func(string) (uintptr, error) { return 0, nil })
	if _, err := NewDynamic(zero, ""); !errors.Is(err, ErrNoEntryPoint) {
		t.Fatalf("NewDynamic = %v, want ErrNoEntryPoint", err)
	}
}

func TestNewDynamicDefaultSymbol(t *testing.T) {
	var asked string
	r := resolve.ResolverFunc(func(name string) (uintptr, error) {
		asked = name
		return 0x1000, nil
	})
	d, err := NewDynamic(r, "")
	if err != nil {
		t.Fatalf("NewDynamic: %v", err)
	}
	if asked != DefaultSymbol || d.Symbol() != DefaultSymbol {
		t.Fatalf("resolved %q, want %q", asked, DefaultSymbol)
	}
}

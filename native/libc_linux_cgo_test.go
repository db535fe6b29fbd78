//go:build linux && cgo

package native

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/resolve"
	"github.com/sliverarmory/hijack/sysno"
)

func TestLibcPipeRoundTrip(t *testing.T) {
	reg := resolve.NewRegistry(resolve.Next{}, func(c sysno.Call, err error) {
		t.Fatalf("resolve %s: %v", c, err)
	})
	h := NewLibc(reg)
	h.Init()

	// pipe never has a native slot; create the pair through the raw table.
	raw := NewRaw()
	testPipeRoundTrip(t, hostFunc(func(c sysno.Call, a sysno.Args) (uintptr, unix.Errno) {
		if c == sysno.Pipe {
			return raw.Call(c, a)
		}
		return h.Call(c, a)
	}))

	if _, ok := reg.Resolved(sysno.Read); !ok {
		t.Fatalf("read should be resolved after Init")
	}
	if _, ok := reg.Resolved(sysno.Poll); !ok {
		t.Fatalf("poll should be resolved on first use")
	}
}

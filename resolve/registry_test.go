package resolve

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sliverarmory/hijack/sysno"
)

type fakeResolver struct {
	mu    sync.Mutex
	calls map[string]int
	addrs map[string]uintptr
}

func newFakeResolver() *fakeResolver {
	addrs := make(map[string]uintptr)
	for i, c := range sysno.All() {
		addrs[c.String()] = uintptr(0x1000 + i*0x10)
	}
	return &fakeResolver{calls: make(map[string]int), addrs: addrs}
}

func (f *fakeResolver) Resolve(name string) (uintptr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	addr, ok := f.addrs[name]
	if !ok {
		return 0, ErrNotFound
	}
	return addr, nil
}

func noFatal(t *testing.T) func(sysno.Call, error) {
	return func(c sysno.Call, err error) {
		t.Errorf("unexpected fatal resolving %s: %v", c, err)
	}
}

func TestLookupCachesAddress(t *testing.T) {
	res := newFakeResolver()
	reg := NewRegistry(res, noFatal(t))

	first := reg.Lookup(sysno.Socket)
	second := reg.Lookup(sysno.Socket)
	if first == 0 || first != second {
		t.Fatalf("Lookup(socket) = %#x then %#x, want the same non-zero address", first, second)
	}
	if res.calls["socket"] != 1 {
		t.Fatalf("resolver called %d times, want 1", res.calls["socket"])
	}
}

func TestConcurrentFirstLookupIsIdempotent(t *testing.T) {
	reg := NewRegistry(newFakeResolver(), noFatal(t))

	const workers = 32
	got := make([]uintptr, workers)
	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)
	for i := 0; i < workers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			start.Wait()
			got[i] = reg.Lookup(sysno.Poll)
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("worker %d saw %#x, worker 0 saw %#x", i, got[i], got[0])
		}
	}
	if addr, ok := reg.Resolved(sysno.Poll); !ok || addr != got[0] {
		t.Fatalf("Resolved(poll) = %#x, %v", addr, ok)
	}
}

func TestInitResolvesDescriptorKeyedCalls(t *testing.T) {
	res := newFakeResolver()
	reg := NewRegistry(res, noFatal(t))
	reg.Init()
	reg.Init()

	var resolved, lazy []string
	for _, c := range sysno.All() {
		_, ok := reg.Resolved(c)
		switch {
		case c.FDKeyed() && ok:
			resolved = append(resolved, c.String())
		case !c.FDKeyed() && ok:
			lazy = append(lazy, c.String())
		case c.FDKeyed() && !ok:
			t.Errorf("%s not resolved by Init", c)
		}
	}
	if len(lazy) != 0 {
		t.Fatalf("Init resolved lazy calls: %v", lazy)
	}
	for _, name := range resolved {
		if res.calls[name] != 1 {
			t.Errorf("%s resolved %d times", name, res.calls[name])
		}
	}
}

func TestMissingSymbolIsFatal(t *testing.T) {
	res := newFakeResolver()
	delete(res.addrs, "getsockopt")

	var fatals []string
	var gotErr error
	reg := NewRegistry(res, func(c sysno.Call, err error) {
		fatals = append(fatals, c.String())
		gotErr = err
	})

	if addr := reg.Lookup(sysno.Getsockopt); addr != 0 {
		t.Fatalf("Lookup returned %#x for a missing symbol", addr)
	}
	if diff := cmp.Diff([]string{"getsockopt"}, fatals); diff != "" {
		t.Fatalf("fatal calls mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(gotErr, ErrNotFound) {
		t.Fatalf("fatal error = %v, want ErrNotFound", gotErr)
	}
	if _, ok := reg.Resolved(sysno.Getsockopt); ok {
		t.Fatalf("failed lookup must not fill the slot")
	}
}

func TestZeroAddressIsFatal(t *testing.T) {
	var fatal atomic.Int32
	reg := NewRegistry(ResolverFunc(func(string) (uintptr, error) { return 0, nil }), func(sysno.Call, error) {
		fatal.Add(1)
	})
	reg.Lookup(sysno.Read)
	if fatal.Load() != 1 {
		t.Fatalf("fatal called %d times, want 1", fatal.Load())
	}
}

func TestKernelOnlyCallsHaveNoNativeSlot(t *testing.T) {
	var fatal atomic.Int32
	res := newFakeResolver()
	reg := NewRegistry(res, func(sysno.Call, error) { fatal.Add(1) })
	if addr := reg.Lookup(sysno.Pipe); addr != 0 {
		t.Fatalf("Lookup(pipe) = %#x, want 0", addr)
	}
	if fatal.Load() != 1 || res.calls["pipe"] != 0 {
		t.Fatalf("pipe must be rejected before reaching the resolver")
	}
}

//go:build linux

package hijack

import (
	"math/bits"
	"unsafe"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/sysno"
)

// The host kernel and the library kernel have independent readiness
// machinery, so nothing can wait on both at once. Calls whose descriptor set
// spans both namespaces fail with EOPNOTSUPP before either backend runs.

// Poll routes on every descriptor in fds. An empty set goes to the library
// kernel.
func (r *Router) Poll(fds *unix.PollFd, nfds uint, timeout int) (int, error) {
	return r.poll(sysno.Args{sysno.Ptr(unsafe.Pointer(fds)), sysno.Word(nfds), sysno.Word(timeout)})
}

// Select routes on every descriptor flagged in any of the three sets. The
// sets are read as arrays of C longs, so they may be larger than an
// unix.FdSet when kernel descriptors are involved.
func (r *Router) Select(nfds int, rset, wset, eset *unix.FdSet, timeout *unix.Timeval) (int, error) {
	return r.selectFn(sysno.Args{
		sysno.Word(nfds),
		sysno.Ptr(unsafe.Pointer(rset)),
		sysno.Ptr(unsafe.Pointer(wset)),
		sysno.Ptr(unsafe.Pointer(eset)),
		sysno.Ptr(unsafe.Pointer(timeout)),
	})
}

// EpollCtl requires the epoll instance and the target to live in the same
// namespace.
func (r *Router) EpollCtl(epfd, op, fd int, event *unix.EpollEvent) (int, error) {
	return r.epollCtl(sysno.Args{sysno.Word(epfd), sysno.Word(op), sysno.Word(fd), sysno.Ptr(unsafe.Pointer(event))})
}

// EpollCreate always creates a library kernel epoll instance.
func (r *Router) EpollCreate(size int) (int, error) {
	return r.kernel(sysno.EpollCreate, sysno.Args{sysno.Word(size)})
}

// Pipe always creates a library kernel pipe.
func (r *Router) Pipe(fds *[2]int32) (int, error) {
	return r.kernel(sysno.Pipe, sysno.Args{sysno.Ptr(unsafe.Pointer(fds))})
}

func (r *Router) poll(a sysno.Args) (int, error) {
	var s seen
	if fds, n := a[0].Pointer(), a[1].Uintptr(); fds != nil && n != 0 {
		for _, pfd := range unsafe.Slice((*unix.PollFd)(fds), n) {
			s.add(int(pfd.Fd))
		}
	}
	return r.routeSet(sysno.Poll, s, a)
}

const longBits = bits.UintSize

func (r *Router) selectFn(a sysno.Args) (int, error) {
	nfds := a[0].Int()
	var s seen
	if nfds > 0 {
		nwords := (nfds + longBits - 1) / longBits
		for _, slot := range a[1:4] {
			set := slot.Pointer()
			if set == nil {
				continue
			}
			words := unsafe.Slice((*uint)(set), nwords)
			for i, word := range words {
				if i == nwords-1 && nfds%longBits != 0 {
					word &= 1<<(nfds%longBits) - 1
				}
				// FDOffset is a multiple of the word size, so one word
				// never straddles the two namespaces.
				if word != 0 {
					s.add(i * longBits)
				}
			}
		}
	}
	return r.routeSet(sysno.Select, s, a)
}

func (r *Router) epollCtl(a sysno.Args) (int, error) {
	var s seen
	s.add(a[0].Int())
	s.add(a[2].Int())
	return r.routeSet(sysno.EpollCtl, s, a)
}

func (r *Router) routeSet(c sysno.Call, s seen, a sysno.Args) (int, error) {
	switch {
	case s.mixed():
		clog.Debugf("hijack: %s spans host and library kernel descriptors", c)
		return -1, unix.EOPNOTSUPP
	case s == seenNative:
		return r.native(c, a)
	default:
		return r.kernel(c, a)
	}
}

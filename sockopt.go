//go:build linux

package hijack

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/sysno"
)

// Setsockopt translates the level and option name for kernel sockets. The
// option value is passed through as is.
func (r *Router) Setsockopt(fd, level, optname int, optval unsafe.Pointer, optlen uint32) (int, error) {
	return r.sockopt(sysno.Setsockopt, sysno.Args{sysno.Word(fd), sysno.Word(level), sysno.Word(optname), sysno.Ptr(optval), sysno.Word(optlen)})
}

// Getsockopt translates the level and option name for kernel sockets.
func (r *Router) Getsockopt(fd, level, optname int, optval unsafe.Pointer, optlen *uint32) (int, error) {
	return r.sockopt(sysno.Getsockopt, sysno.Args{sysno.Word(fd), sysno.Word(level), sysno.Word(optname), sysno.Ptr(optval), sysno.Ptr(unsafe.Pointer(optlen))})
}

// Socket creates host sockets for AF_UNIX and library kernel sockets for
// every other family.
func (r *Router) Socket(domain, typ, proto int) (int, error) {
	return r.socket(sysno.Args{sysno.Word(domain), sysno.Word(typ), sysno.Word(proto)})
}

// Ioctl forwards one argument, a pointer for most requests. The library
// kernel serves the translated request through its fcntl syscall.
func (r *Router) Ioctl(fd int, req uint, arg unsafe.Pointer) (int, error) {
	return r.ioctl(sysno.Args{sysno.Word(fd), sysno.Word(req), sysno.Ptr(arg)})
}

// Fcntl forwards one word sized argument after translating cmd for kernel
// descriptors. Arguments wider than a word cannot be expressed.
func (r *Router) Fcntl(fd, cmd int, arg uintptr) (int, error) {
	return r.fcntl(sysno.Args{sysno.Word(fd), sysno.Word(cmd), sysno.Word(arg)})
}

func (r *Router) sockopt(c sysno.Call, a sysno.Args) (int, error) {
	if Classify(a[0].Int()) == Native {
		return r.native(c, a)
	}
	a[1] = sysno.Word(r.xl.SocketLevel(a[1].Int()))
	a[2] = sysno.Word(r.xl.SocketOption(a[2].Int()))
	return r.kernel(c, a)
}

func (r *Router) socket(a sysno.Args) (int, error) {
	if a[0].Int() == unix.AF_UNIX {
		return r.native(sysno.Socket, a)
	}
	return r.kernel(sysno.Socket, a)
}

func (r *Router) ioctl(a sysno.Args) (int, error) {
	if Classify(a[0].Int()) == Native {
		return r.native(sysno.Ioctl, a)
	}
	a[1] = sysno.Word(r.xl.IoctlRequest(uint(a[1].Uintptr())))
	return r.kernel(sysno.Ioctl, a)
}

func (r *Router) fcntl(a sysno.Args) (int, error) {
	if Classify(a[0].Int()) == Native {
		return r.native(sysno.Fcntl, a)
	}
	a[1] = sysno.Word(r.xl.FcntlCommand(a[1].Int()))
	return r.kernel(sysno.Fcntl, a)
}

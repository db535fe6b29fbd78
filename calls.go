//go:build linux

package hijack

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/sysno"
)

// The hooks below take the arguments of the C entry point of the same name
// and follow the namespace of their first descriptor. Host descriptors see
// the host call with the arguments untouched; kernel descriptors see the
// same arguments through the gateway. The error is a unix.Errno.
//
// Pointer arguments travel as pointer slots, so the memory they reference
// stays live and addressable until a backend is done with it.

func (r *Router) Close(fd int) (int, error) {
	return r.byFD(sysno.Close, sysno.Args{sysno.Word(fd)})
}

func (r *Router) Read(fd int, buf unsafe.Pointer, count int) (int, error) {
	return r.byFD(sysno.Read, sysno.Args{sysno.Word(fd), sysno.Ptr(buf), sysno.Word(count)})
}

func (r *Router) Write(fd int, buf unsafe.Pointer, count int) (int, error) {
	return r.byFD(sysno.Write, sysno.Args{sysno.Word(fd), sysno.Ptr(buf), sysno.Word(count)})
}

func (r *Router) Readv(fd int, iov *unix.Iovec, iovcnt int) (int, error) {
	return r.byFD(sysno.Readv, sysno.Args{sysno.Word(fd), sysno.Ptr(unsafe.Pointer(iov)), sysno.Word(iovcnt)})
}

func (r *Router) Writev(fd int, iov *unix.Iovec, iovcnt int) (int, error) {
	return r.byFD(sysno.Writev, sysno.Args{sysno.Word(fd), sysno.Ptr(unsafe.Pointer(iov)), sysno.Word(iovcnt)})
}

func (r *Router) Send(fd int, buf unsafe.Pointer, length int, flags int) (int, error) {
	return r.byFD(sysno.Send, sysno.Args{sysno.Word(fd), sysno.Ptr(buf), sysno.Word(length), sysno.Word(flags)})
}

func (r *Router) Sendto(fd int, buf unsafe.Pointer, length int, flags int, addr unsafe.Pointer, addrlen uint32) (int, error) {
	return r.byFD(sysno.Sendto, sysno.Args{sysno.Word(fd), sysno.Ptr(buf), sysno.Word(length), sysno.Word(flags), sysno.Ptr(addr), sysno.Word(addrlen)})
}

func (r *Router) Sendmsg(fd int, msg *unix.Msghdr, flags int) (int, error) {
	return r.byFD(sysno.Sendmsg, sysno.Args{sysno.Word(fd), sysno.Ptr(unsafe.Pointer(msg)), sysno.Word(flags)})
}

func (r *Router) Sendmmsg(fd int, msgvec unsafe.Pointer, vlen uint, flags int) (int, error) {
	return r.byFD(sysno.Sendmmsg, sysno.Args{sysno.Word(fd), sysno.Ptr(msgvec), sysno.Word(vlen), sysno.Word(flags)})
}

func (r *Router) Recv(fd int, buf unsafe.Pointer, length int, flags int) (int, error) {
	return r.byFD(sysno.Recv, sysno.Args{sysno.Word(fd), sysno.Ptr(buf), sysno.Word(length), sysno.Word(flags)})
}

func (r *Router) Recvfrom(fd int, buf unsafe.Pointer, length int, flags int, addr unsafe.Pointer, addrlen *uint32) (int, error) {
	return r.byFD(sysno.Recvfrom, sysno.Args{sysno.Word(fd), sysno.Ptr(buf), sysno.Word(length), sysno.Word(flags), sysno.Ptr(addr), sysno.Ptr(unsafe.Pointer(addrlen))})
}

func (r *Router) Recvmsg(fd int, msg *unix.Msghdr, flags int) (int, error) {
	return r.byFD(sysno.Recvmsg, sysno.Args{sysno.Word(fd), sysno.Ptr(unsafe.Pointer(msg)), sysno.Word(flags)})
}

func (r *Router) Bind(fd int, addr unsafe.Pointer, addrlen uint32) (int, error) {
	return r.byFD(sysno.Bind, sysno.Args{sysno.Word(fd), sysno.Ptr(addr), sysno.Word(addrlen)})
}

func (r *Router) Connect(fd int, addr unsafe.Pointer, addrlen uint32) (int, error) {
	return r.byFD(sysno.Connect, sysno.Args{sysno.Word(fd), sysno.Ptr(addr), sysno.Word(addrlen)})
}

func (r *Router) Listen(fd int, backlog int) (int, error) {
	return r.byFD(sysno.Listen, sysno.Args{sysno.Word(fd), sysno.Word(backlog)})
}

func (r *Router) Accept(fd int, addr unsafe.Pointer, addrlen *uint32) (int, error) {
	return r.byFD(sysno.Accept, sysno.Args{sysno.Word(fd), sysno.Ptr(addr), sysno.Ptr(unsafe.Pointer(addrlen))})
}

func (r *Router) Shutdown(fd int, how int) (int, error) {
	return r.byFD(sysno.Shutdown, sysno.Args{sysno.Word(fd), sysno.Word(how)})
}

func (r *Router) Getsockname(fd int, addr unsafe.Pointer, addrlen *uint32) (int, error) {
	return r.byFD(sysno.Getsockname, sysno.Args{sysno.Word(fd), sysno.Ptr(addr), sysno.Ptr(unsafe.Pointer(addrlen))})
}

func (r *Router) Getpeername(fd int, addr unsafe.Pointer, addrlen *uint32) (int, error) {
	return r.byFD(sysno.Getpeername, sysno.Args{sysno.Word(fd), sysno.Ptr(addr), sysno.Ptr(unsafe.Pointer(addrlen))})
}

func (r *Router) EpollWait(epfd int, events *unix.EpollEvent, maxevents int, timeout int) (int, error) {
	return r.byFD(sysno.EpollWait, sysno.Args{sysno.Word(epfd), sysno.Ptr(unsafe.Pointer(events)), sysno.Word(maxevents), sysno.Word(timeout)})
}

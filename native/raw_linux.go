//go:build linux

package native

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/sysno"
)

// NewRaw returns a Table that issues raw Linux syscalls. Pointer slots are
// pinned for the length of each syscall. Calls that libc
// implements on top of a newer syscall (send, recv, poll, select,
// epoll_wait, epoll_create, pipe) are expressed the same way here, so the
// table works on architectures that lack the legacy numbers.
func NewRaw() *Table {
	return &Table{
		sysno.Close:       direct(unix.SYS_CLOSE),
		sysno.Read:        direct(unix.SYS_READ),
		sysno.Write:       direct(unix.SYS_WRITE),
		sysno.Readv:       direct(unix.SYS_READV),
		sysno.Writev:      direct(unix.SYS_WRITEV),
		sysno.Send:        send,
		sysno.Sendto:      direct(unix.SYS_SENDTO),
		sysno.Sendmsg:     direct(unix.SYS_SENDMSG),
		sysno.Sendmmsg:    direct(unix.SYS_SENDMMSG),
		sysno.Recv:        recv,
		sysno.Recvfrom:    direct(unix.SYS_RECVFROM),
		sysno.Recvmsg:     direct(unix.SYS_RECVMSG),
		sysno.Bind:        direct(unix.SYS_BIND),
		sysno.Connect:     direct(unix.SYS_CONNECT),
		sysno.Listen:      direct(unix.SYS_LISTEN),
		sysno.Accept:      direct(unix.SYS_ACCEPT),
		sysno.Shutdown:    direct(unix.SYS_SHUTDOWN),
		sysno.Getsockname: direct(unix.SYS_GETSOCKNAME),
		sysno.Getpeername: direct(unix.SYS_GETPEERNAME),
		sysno.EpollWait:   epollWait,
		sysno.Setsockopt:  direct(unix.SYS_SETSOCKOPT),
		sysno.Getsockopt:  direct(unix.SYS_GETSOCKOPT),
		sysno.Socket:      direct(unix.SYS_SOCKET),
		sysno.Ioctl:       direct(unix.SYS_IOCTL),
		sysno.Fcntl:       direct(unix.SYS_FCNTL),
		sysno.Poll:        poll,
		sysno.Select:      selectFn,
		sysno.EpollCtl:    direct(unix.SYS_EPOLL_CTL),
		sysno.EpollCreate: epollCreate,
		sysno.Pipe:        pipe,
	}
}

func direct(trap uintptr) Func {
	return func(a sysno.Args) (uintptr, unix.Errno) {
		var pin runtime.Pinner
		defer pin.Unpin()
		w := a.Words(&pin)
		r, _, errno := unix.Syscall6(trap, w[0], w[1], w[2], w[3], w[4], w[5])
		return r, errno
	}
}

func send(a sysno.Args) (uintptr, unix.Errno) {
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	r, _, errno := unix.Syscall6(unix.SYS_SENDTO, w[0], w[1], w[2], w[3], 0, 0)
	return r, errno
}

func recv(a sysno.Args) (uintptr, unix.Errno) {
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	r, _, errno := unix.Syscall6(unix.SYS_RECVFROM, w[0], w[1], w[2], w[3], 0, 0)
	return r, errno
}

// poll(fds, nfds, timeout ms); a negative timeout waits forever.
func poll(a sysno.Args) (uintptr, unix.Errno) {
	var ts *unix.Timespec
	if timeout := a[2].Int(); timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout) * 1e6)
		ts = &t
	}
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	r, _, errno := unix.Syscall6(unix.SYS_PPOLL, w[0], w[1], uintptr(unsafe.Pointer(ts)), 0, 0, 0)
	return r, errno
}

// select(nfds, r, w, e, timeval); the remaining time is written back the
// way Linux select does.
func selectFn(a sysno.Args) (uintptr, unix.Errno) {
	tv := (*unix.Timeval)(a[4].Pointer())
	var ts *unix.Timespec
	if tv != nil {
		t := unix.NsecToTimespec(unix.TimevalToNsec(*tv))
		ts = &t
	}
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	r, _, errno := unix.Syscall6(unix.SYS_PSELECT6, w[0], w[1], w[2], w[3], uintptr(unsafe.Pointer(ts)), 0)
	if tv != nil {
		*tv = unix.NsecToTimeval(unix.TimespecToNsec(*ts))
	}
	return r, errno
}

func epollWait(a sysno.Args) (uintptr, unix.Errno) {
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	r, _, errno := unix.Syscall6(unix.SYS_EPOLL_PWAIT, w[0], w[1], w[2], w[3], 0, 0)
	return r, errno
}

func epollCreate(a sysno.Args) (uintptr, unix.Errno) {
	if a[0].Int() <= 0 {
		return ^uintptr(0), unix.EINVAL
	}
	r, _, errno := unix.Syscall(unix.SYS_EPOLL_CREATE1, 0, 0, 0)
	return r, errno
}

func pipe(a sysno.Args) (uintptr, unix.Errno) {
	var pin runtime.Pinner
	defer pin.Unpin()
	w := a.Words(&pin)
	r, _, errno := unix.Syscall(unix.SYS_PIPE2, w[0], 0, 0)
	return r, errno
}

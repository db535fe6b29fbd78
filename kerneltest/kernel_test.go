//go:build linux

package kerneltest

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack"
	"github.com/sliverarmory/hijack/sysno"
)

func p[T any](v *T) sysno.Arg {
	return sysno.Ptr(unsafe.Pointer(v))
}

func newPipe(t *testing.T, k *Kernel) [2]int32 {
	t.Helper()
	var fds [2]int32
	if ret := k.Syscall(sysno.SYS_PIPE, sysno.Args{p(&fds)}); ret != 0 {
		t.Fatalf("pipe = %d", ret)
	}
	return fds
}

func TestDescriptorsStartAtOffset(t *testing.T) {
	k := New()
	fds := newPipe(t, k)
	if diff := cmp.Diff([2]int32{hijack.FDOffset, hijack.FDOffset + 1}, fds); diff != "" {
		t.Fatalf("pipe descriptors (-want +got):\n%s", diff)
	}
	if !k.Open(int(fds[0])) || k.Open(0) {
		t.Fatal("Open disagrees with the descriptor table")
	}
}

func TestPipeSemantics(t *testing.T) {
	k := New()
	fds := newPipe(t, k)
	buf := make([]byte, 8)

	if ret := k.Syscall(sysno.SYS_READ, sysno.Args{sysno.Word(fds[0]), p(&buf[0]), sysno.Word(8)}); ret != -int64(unix.EAGAIN) {
		t.Fatalf("read on empty pipe = %d, want -EAGAIN", ret)
	}
	if ret := k.Syscall(sysno.SYS_WRITE, sysno.Args{sysno.Word(fds[0]), p(&buf[0]), sysno.Word(1)}); ret != -int64(unix.EBADF) {
		t.Fatalf("write to read end = %d, want -EBADF", ret)
	}

	msg := []byte("abc")
	if ret := k.Syscall(sysno.SYS_SEND, sysno.Args{sysno.Word(fds[1]), p(&msg[0]), sysno.Word(3)}); ret != 3 {
		t.Fatalf("send = %d", ret)
	}
	if ret := k.Syscall(sysno.SYS_CLOSE, sysno.Args{sysno.Word(fds[1])}); ret != 0 {
		t.Fatalf("close = %d", ret)
	}
	if ret := k.Syscall(sysno.SYS_RECV, sysno.Args{sysno.Word(fds[0]), p(&buf[0]), sysno.Word(8)}); ret != 3 {
		t.Fatalf("recv = %d, want 3", ret)
	}
	if ret := k.Syscall(sysno.SYS_READ, sysno.Args{sysno.Word(fds[0]), p(&buf[0]), sysno.Word(8)}); ret != 0 {
		t.Fatalf("read after writer closed = %d, want EOF", ret)
	}
	if ret := k.Syscall(sysno.SYS_CLOSE, sysno.Args{sysno.Word(fds[1])}); ret != -int64(unix.EBADF) {
		t.Fatalf("double close = %d, want -EBADF", ret)
	}
}

func TestSocketOptions(t *testing.T) {
	k := New()
	if ret := k.Syscall(sysno.SYS_SOCKET, sysno.Args{sysno.Word(unix.AF_UNIX), sysno.Word(unix.SOCK_STREAM)}); ret != -int64(unix.EAFNOSUPPORT) {
		t.Fatalf("AF_UNIX socket = %d, want -EAFNOSUPPORT", ret)
	}
	fd := k.Syscall(sysno.SYS_SOCKET, sysno.Args{sysno.Word(unix.AF_INET), sysno.Word(unix.SOCK_STREAM)})
	if fd < hijack.FDOffset {
		t.Fatalf("socket = %d", fd)
	}

	var v int32
	n := uint32(4)
	if ret := k.Syscall(sysno.SYS_GETSOCKOPT, sysno.Args{sysno.Word(fd), sysno.Word(1), sysno.Word(2), p(&v), p(&n)}); ret != -int64(unix.ENOPROTOOPT) {
		t.Fatalf("getsockopt before set = %d", ret)
	}
	v = 9
	if ret := k.Syscall(sysno.SYS_SETSOCKOPT, sysno.Args{sysno.Word(fd), sysno.Word(1), sysno.Word(2), p(&v), sysno.Word(4)}); ret != 0 {
		t.Fatalf("setsockopt = %d", ret)
	}
	v = 0
	if ret := k.Syscall(sysno.SYS_GETSOCKOPT, sysno.Args{sysno.Word(fd), sysno.Word(1), sysno.Word(2), p(&v), p(&n)}); ret != 0 || v != 9 {
		t.Fatalf("getsockopt = %d value %d", ret, v)
	}

	addr := unix.RawSockaddrInet4{Family: unix.AF_INET, Port: 0x5000, Addr: [4]byte{127, 0, 0, 1}}
	if ret := k.Syscall(sysno.SYS_BIND, sysno.Args{sysno.Word(fd), p(&addr), sysno.Word(unix.SizeofSockaddrInet4)}); ret != 0 {
		t.Fatalf("bind = %d", ret)
	}
	var got unix.RawSockaddrInet4
	gotLen := uint32(unix.SizeofSockaddrInet4)
	if ret := k.Syscall(sysno.SYS_GETSOCKNAME, sysno.Args{sysno.Word(fd), p(&got), p(&gotLen)}); ret != 0 {
		t.Fatalf("getsockname = %d", ret)
	}
	if diff := cmp.Diff(addr, got); diff != "" {
		t.Fatalf("bound address (-want +got):\n%s", diff)
	}

	if ret := k.Syscall(sysno.SYS_CONNECT, sysno.Args{sysno.Word(fd), p(&addr), sysno.Word(unix.SizeofSockaddrInet4)}); ret != -int64(unix.ECONNREFUSED) {
		t.Fatalf("connect = %d", ret)
	}
	pipe := newPipe(t, k)
	if ret := k.Syscall(sysno.SYS_LISTEN, sysno.Args{sysno.Word(pipe[0]), sysno.Word(1)}); ret != -int64(unix.ENOTSOCK) {
		t.Fatalf("listen on pipe = %d, want -ENOTSOCK", ret)
	}
}

func TestPollAndSelect(t *testing.T) {
	k := New()
	fds := newPipe(t, k)

	pfds := []unix.PollFd{
		{Fd: fds[0], Events: unix.POLLIN},
		{Fd: fds[1], Events: unix.POLLOUT},
		{Fd: hijack.FDOffset + 100, Events: unix.POLLIN},
	}
	if ret := k.Syscall(sysno.SYS_POLL, sysno.Args{p(&pfds[0]), sysno.Word(3)}); ret != 2 {
		t.Fatalf("poll = %d, want 2", ret)
	}
	want := []int16{0, unix.POLLOUT, unix.POLLNVAL}
	for i, pfd := range pfds {
		if pfd.Revents != want[i] {
			t.Errorf("revents[%d] = %#x, want %#x", i, pfd.Revents, want[i])
		}
	}

	words := make([]uint, hijack.FDOffset/wordBits+1)
	words[int(fds[1])/wordBits] |= 1 << (int(fds[1]) % wordBits)
	if ret := k.Syscall(sysno.SYS_SELECT, sysno.Args{sysno.Word(fds[1] + 1), {}, p(&words[0])}); ret != 1 {
		t.Fatalf("select for write = %d, want 1", ret)
	}

	words[0] = 1
	if ret := k.Syscall(sysno.SYS_SELECT, sysno.Args{sysno.Word(fds[1] + 1), {}, p(&words[0])}); ret != -int64(unix.EBADF) {
		t.Fatalf("select with a foreign descriptor = %d, want -EBADF", ret)
	}
}

func TestEpollLevelTriggered(t *testing.T) {
	k := New()
	fds := newPipe(t, k)
	epfd := k.Syscall(sysno.SYS_EPOLL_CREATE, sysno.Args{sysno.Word(1)})
	if epfd < hijack.FDOffset {
		t.Fatalf("epoll_create = %d", epfd)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: fds[0]}
	add := sysno.Args{sysno.Word(epfd), sysno.Word(unix.EPOLL_CTL_ADD), sysno.Word(fds[0]), p(&ev)}
	if ret := k.Syscall(sysno.SYS_EPOLL_CTL, add); ret != 0 {
		t.Fatalf("epoll_ctl add = %d", ret)
	}
	if ret := k.Syscall(sysno.SYS_EPOLL_CTL, add); ret != -int64(unix.EEXIST) {
		t.Fatalf("second add = %d, want -EEXIST", ret)
	}

	msg := []byte("x")
	k.Syscall(sysno.SYS_WRITE, sysno.Args{sysno.Word(fds[1]), p(&msg[0]), sysno.Word(1)})

	out := make([]unix.EpollEvent, 2)
	for i := 0; i < 2; i++ {
		if ret := k.Syscall(sysno.SYS_EPOLL_WAIT, sysno.Args{sysno.Word(epfd), p(&out[0]), sysno.Word(2), {}}); ret != 1 {
			t.Fatalf("epoll_wait #%d = %d, want 1", i, ret)
		}
	}

	k.Syscall(sysno.SYS_CLOSE, sysno.Args{sysno.Word(fds[0])})
	if ret := k.Syscall(sysno.SYS_EPOLL_WAIT, sysno.Args{sysno.Word(epfd), p(&out[0]), sysno.Word(2), {}}); ret != 0 {
		t.Fatalf("epoll_wait after close = %d, want 0", ret)
	}
}

func TestInputQueueThroughFcntl(t *testing.T) {
	k := New()
	fds := newPipe(t, k)
	msg := []byte("queued")
	k.Syscall(sysno.SYS_WRITE, sysno.Args{sysno.Word(fds[1]), p(&msg[0]), sysno.Word(len(msg))})

	var avail int32
	if ret := k.Syscall(sysno.SYS_FCNTL, sysno.Args{sysno.Word(fds[0]), sysno.Word(unix.TIOCINQ), p(&avail)}); ret != 0 || avail != int32(len(msg)) {
		t.Fatalf("TIOCINQ = %d, %d bytes, want %d", ret, avail, len(msg))
	}
	if ret := k.Syscall(sysno.SYS_FCNTL, sysno.Args{sysno.Word(fds[1]), sysno.Word(unix.TIOCINQ), p(&avail)}); ret != -int64(unix.ENOTTY) {
		t.Fatalf("TIOCINQ on the write end = %d, want -ENOTTY", ret)
	}
}

func TestUnknownSyscall(t *testing.T) {
	k := New()
	if ret := k.Syscall(9999, sysno.Args{}); ret != -int64(unix.ENOSYS) {
		t.Fatalf("unknown syscall = %d, want -ENOSYS", ret)
	}
	if diff := cmp.Diff([]sysno.NR{9999}, k.Calls()); diff != "" {
		t.Fatalf("Calls (-want +got):\n%s", diff)
	}
}

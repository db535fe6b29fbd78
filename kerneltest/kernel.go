//go:build linux

// Package kerneltest provides an in-memory library kernel for tests.
//
// The kernel hands out descriptors starting at hijack.FDOffset and serves
// pipes, inet sockets that remember their options and bound address, fcntl
// flags, poll, select and level triggered epoll. It never blocks: a read
// that would wait fails with EAGAIN and every wait returns immediately.
package kerneltest

import (
	"math/bits"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack"
	"github.com/sliverarmory/hijack/kernel"
	"github.com/sliverarmory/hijack/sysno"
)

type pipeBuf struct {
	data    []byte
	readers int
	writers int
}

type pipeEnd struct {
	buf   *pipeBuf
	write bool
	flags int
}

type optKey struct {
	level int
	name  int
}

type socket struct {
	family    int
	typ       int
	proto     int
	flags     int
	opts      map[optKey][]byte
	addr      []byte
	listening bool
}

type epoll struct {
	interest map[int]unix.EpollEvent
}

// Kernel is a Gateway with its own descriptor space.
type Kernel struct {
	mu    sync.Mutex
	next  int
	files map[int]any
	calls []sysno.NR
}

func New() *Kernel {
	return &Kernel{next: hijack.FDOffset, files: make(map[int]any)}
}

// Calls returns the syscall numbers served so far, in order.
func (k *Kernel) Calls() []sysno.NR {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]sysno.NR(nil), k.calls...)
}

// Open reports whether fd is an open descriptor.
func (k *Kernel) Open(fd int) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.files[fd]
	return ok
}

func (k *Kernel) Syscall(nr sysno.NR, a sysno.Args) int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls = append(k.calls, nr)

	switch nr {
	case sysno.SYS_PIPE:
		return k.pipe(a[0].Pointer())
	case sysno.SYS_CLOSE:
		return k.close(a[0].Int())
	case sysno.SYS_READ, sysno.SYS_RECV, sysno.SYS_RECVFROM:
		return k.read(a[0].Int(), bytesAt(a[1].Pointer(), int(a[2].Uintptr())))
	case sysno.SYS_WRITE, sysno.SYS_SEND, sysno.SYS_SENDTO:
		return k.write(a[0].Int(), bytesAt(a[1].Pointer(), int(a[2].Uintptr())))
	case sysno.SYS_READV:
		return k.vector(a[0].Int(), a[1].Pointer(), a[2].Int(), k.read)
	case sysno.SYS_WRITEV:
		return k.vector(a[0].Int(), a[1].Pointer(), a[2].Int(), k.write)
	case sysno.SYS_SOCKET:
		return k.socket(a[0].Int(), a[1].Int(), a[2].Int())
	case sysno.SYS_SETSOCKOPT:
		return k.setsockopt(a[0].Int(), a[1].Int(), a[2].Int(), bytesAt(a[3].Pointer(), int(uint32(a[4].Uintptr()))))
	case sysno.SYS_GETSOCKOPT:
		return k.getsockopt(a[0].Int(), a[1].Int(), a[2].Int(), a[3].Pointer(), a[4].Pointer())
	case sysno.SYS_BIND:
		return k.bind(a[0].Int(), bytesAt(a[1].Pointer(), int(uint32(a[2].Uintptr()))))
	case sysno.SYS_GETSOCKNAME:
		return k.getsockname(a[0].Int(), a[1].Pointer(), a[2].Pointer())
	case sysno.SYS_LISTEN:
		return k.listen(a[0].Int())
	case sysno.SYS_ACCEPT:
		return k.sockOnly(a[0].Int(), unix.EAGAIN)
	case sysno.SYS_CONNECT:
		return k.sockOnly(a[0].Int(), unix.ECONNREFUSED)
	case sysno.SYS_GETPEERNAME, sysno.SYS_SENDMSG, sysno.SYS_RECVMSG, sysno.SYS_SENDMMSG:
		return k.sockOnly(a[0].Int(), unix.ENOTCONN)
	case sysno.SYS_SHUTDOWN:
		return k.sockOnly(a[0].Int(), 0)
	case sysno.SYS_FCNTL:
		return k.fcntl(a[0].Int(), uint(a[1].Uintptr()), a[2])
	case sysno.SYS_POLL:
		return k.poll(a[0].Pointer(), int(a[1].Uintptr()))
	case sysno.SYS_SELECT:
		return k.selectFn(a[0].Int(), a[1].Pointer(), a[2].Pointer(), a[3].Pointer())
	case sysno.SYS_EPOLL_CREATE:
		if a[0].Int() <= 0 {
			return fail(unix.EINVAL)
		}
		return int64(k.install(&epoll{interest: make(map[int]unix.EpollEvent)}))
	case sysno.SYS_EPOLL_CTL:
		return k.epollCtl(a[0].Int(), a[1].Int(), a[2].Int(), a[3].Pointer())
	case sysno.SYS_EPOLL_WAIT:
		return k.epollWait(a[0].Int(), a[1].Pointer(), a[2].Int())
	}
	return fail(unix.ENOSYS)
}

func fail(errno unix.Errno) int64 {
	return -int64(errno)
}

func bytesAt(p unsafe.Pointer, n int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

func (k *Kernel) install(f any) int {
	fd := k.next
	k.next++
	k.files[fd] = f
	return fd
}

func (k *Kernel) pipe(out unsafe.Pointer) int64 {
	if out == nil {
		return fail(unix.EFAULT)
	}
	buf := &pipeBuf{readers: 1, writers: 1}
	fds := (*[2]int32)(out)
	fds[0] = int32(k.install(&pipeEnd{buf: buf}))
	fds[1] = int32(k.install(&pipeEnd{buf: buf, write: true, flags: unix.O_WRONLY}))
	return 0
}

func (k *Kernel) close(fd int) int64 {
	f, ok := k.files[fd]
	if !ok {
		return fail(unix.EBADF)
	}
	delete(k.files, fd)
	if p, ok := f.(*pipeEnd); ok {
		if p.write {
			p.buf.writers--
		} else {
			p.buf.readers--
		}
	}
	for _, f := range k.files {
		if ep, ok := f.(*epoll); ok {
			delete(ep.interest, fd)
		}
	}
	return 0
}

func (k *Kernel) read(fd int, p []byte) int64 {
	f, ok := k.files[fd]
	if !ok {
		return fail(unix.EBADF)
	}
	switch f := f.(type) {
	case *pipeEnd:
		if f.write {
			return fail(unix.EBADF)
		}
		if len(f.buf.data) == 0 {
			if f.buf.writers == 0 || len(p) == 0 {
				return 0
			}
			return fail(unix.EAGAIN)
		}
		n := copy(p, f.buf.data)
		f.buf.data = f.buf.data[n:]
		return int64(n)
	case *socket:
		return fail(unix.ENOTCONN)
	}
	return fail(unix.EINVAL)
}

func (k *Kernel) write(fd int, p []byte) int64 {
	f, ok := k.files[fd]
	if !ok {
		return fail(unix.EBADF)
	}
	switch f := f.(type) {
	case *pipeEnd:
		if !f.write {
			return fail(unix.EBADF)
		}
		if f.buf.readers == 0 {
			return fail(unix.EPIPE)
		}
		f.buf.data = append(f.buf.data, p...)
		return int64(len(p))
	case *socket:
		return fail(unix.ENOTCONN)
	}
	return fail(unix.EINVAL)
}

func (k *Kernel) vector(fd int, iov unsafe.Pointer, iovcnt int, op func(int, []byte) int64) int64 {
	if iovcnt < 0 {
		return fail(unix.EINVAL)
	}
	if iovcnt == 0 {
		return 0
	}
	var total int64
	if iov == nil {
		return fail(unix.EFAULT)
	}
	for _, v := range unsafe.Slice((*unix.Iovec)(iov), iovcnt) {
		n := op(fd, bytesAt(unsafe.Pointer(v.Base), int(v.Len)))
		if n < 0 {
			if total > 0 {
				return total
			}
			return n
		}
		total += n
		if uint64(n) < uint64(v.Len) {
			break
		}
	}
	return total
}

func (k *Kernel) socket(family, typ, proto int) int64 {
	switch family {
	case unix.AF_INET, unix.AF_INET6, unix.AF_PACKET, unix.AF_NETLINK:
	default:
		return fail(unix.EAFNOSUPPORT)
	}
	return int64(k.install(&socket{family: family, typ: typ, proto: proto, opts: make(map[optKey][]byte)}))
}

func (k *Kernel) sock(fd int) (*socket, unix.Errno) {
	f, ok := k.files[fd]
	if !ok {
		return nil, unix.EBADF
	}
	s, ok := f.(*socket)
	if !ok {
		return nil, unix.ENOTSOCK
	}
	return s, 0
}

func (k *Kernel) sockOnly(fd int, errno unix.Errno) int64 {
	if _, e := k.sock(fd); e != 0 {
		return fail(e)
	}
	if errno != 0 {
		return fail(errno)
	}
	return 0
}

func (k *Kernel) setsockopt(fd, level, name int, val []byte) int64 {
	s, errno := k.sock(fd)
	if errno != 0 {
		return fail(errno)
	}
	s.opts[optKey{level, name}] = append([]byte(nil), val...)
	return 0
}

func (k *Kernel) getsockopt(fd, level, name int, val, lenp unsafe.Pointer) int64 {
	s, errno := k.sock(fd)
	if errno != 0 {
		return fail(errno)
	}
	v, ok := s.opts[optKey{level, name}]
	if !ok {
		return fail(unix.ENOPROTOOPT)
	}
	if lenp == nil {
		return fail(unix.EFAULT)
	}
	size := (*uint32)(lenp)
	n := copy(bytesAt(val, int(*size)), v)
	*size = uint32(n)
	return 0
}

func (k *Kernel) bind(fd int, addr []byte) int64 {
	s, errno := k.sock(fd)
	if errno != 0 {
		return fail(errno)
	}
	if len(addr) < 2 {
		return fail(unix.EINVAL)
	}
	s.addr = append([]byte(nil), addr...)
	return 0
}

func (k *Kernel) getsockname(fd int, addr, lenp unsafe.Pointer) int64 {
	s, errno := k.sock(fd)
	if errno != 0 {
		return fail(errno)
	}
	if lenp == nil {
		return fail(unix.EFAULT)
	}
	size := (*uint32)(lenp)
	copy(bytesAt(addr, int(*size)), s.addr)
	*size = uint32(len(s.addr))
	return 0
}

func (k *Kernel) listen(fd int) int64 {
	s, errno := k.sock(fd)
	if errno != 0 {
		return fail(errno)
	}
	s.listening = true
	return 0
}

func (k *Kernel) fcntl(fd int, cmd uint, arg sysno.Arg) int64 {
	f, ok := k.files[fd]
	if !ok {
		return fail(unix.EBADF)
	}
	switch cmd {
	case unix.F_GETFL:
		switch f := f.(type) {
		case *pipeEnd:
			return int64(f.flags)
		case *socket:
			return int64(f.flags | unix.O_RDWR)
		}
		return int64(unix.O_RDWR)
	case unix.F_SETFL:
		const settable = unix.O_NONBLOCK | unix.O_APPEND
		switch f := f.(type) {
		case *pipeEnd:
			f.flags = f.flags&^settable | arg.Int()&settable
		case *socket:
			f.flags = f.flags&^settable | arg.Int()&settable
		}
		return 0
	case unix.TIOCINQ:
		p, ok := f.(*pipeEnd)
		if !ok || p.write {
			return fail(unix.ENOTTY)
		}
		avail := arg.Pointer()
		if avail == nil {
			return fail(unix.EFAULT)
		}
		*(*int32)(avail) = int32(len(p.buf.data))
		return 0
	}
	return fail(unix.EINVAL)
}

// readiness reports the poll events fd currently satisfies.
func (k *Kernel) readiness(fd int) (int16, bool) {
	f, ok := k.files[fd]
	if !ok {
		return 0, false
	}
	switch f := f.(type) {
	case *pipeEnd:
		if f.write {
			if f.buf.readers == 0 {
				return unix.POLLERR | unix.POLLOUT, true
			}
			return unix.POLLOUT, true
		}
		var ev int16
		if len(f.buf.data) > 0 {
			ev |= unix.POLLIN
		}
		if f.buf.writers == 0 {
			ev |= unix.POLLHUP
		}
		return ev, true
	case *socket:
		if f.listening {
			return 0, true
		}
		return unix.POLLOUT, true
	}
	return 0, true
}

func (k *Kernel) poll(fds unsafe.Pointer, nfds int) int64 {
	if nfds == 0 {
		return 0
	}
	if fds == nil {
		return fail(unix.EFAULT)
	}
	set := unsafe.Slice((*unix.PollFd)(fds), nfds)
	var n int64
	for i := range set {
		pfd := &set[i]
		pfd.Revents = 0
		if pfd.Fd < 0 {
			continue
		}
		ev, ok := k.readiness(int(pfd.Fd))
		if !ok {
			pfd.Revents = unix.POLLNVAL
		} else {
			pfd.Revents = ev & (pfd.Events | unix.POLLERR | unix.POLLHUP)
		}
		if pfd.Revents != 0 {
			n++
		}
	}
	return n
}

const wordBits = bits.UintSize

func fdWord(set unsafe.Pointer, i int) *uint {
	return (*uint)(unsafe.Add(set, i*(wordBits/8)))
}

func (k *Kernel) selectFn(nfds int, r, w, e unsafe.Pointer) int64 {
	if nfds < 0 {
		return fail(unix.EINVAL)
	}
	sets := [3]unsafe.Pointer{r, w, e}
	want := [3]int16{unix.POLLIN | unix.POLLHUP, unix.POLLOUT | unix.POLLERR, 0}
	nwords := (nfds + wordBits - 1) / wordBits

	for _, set := range sets {
		if set == nil {
			continue
		}
		for i := 0; i < nwords; i++ {
			word := *fdWord(set, i)
			for word != 0 {
				bit := bits.TrailingZeros(word)
				word &^= 1 << bit
				fd := i*wordBits + bit
				if fd >= nfds {
					break
				}
				if _, ok := k.files[fd]; !ok {
					return fail(unix.EBADF)
				}
			}
		}
	}

	var n int64
	for s, set := range sets {
		if set == nil {
			continue
		}
		for i := 0; i < nwords; i++ {
			p := fdWord(set, i)
			word := *p
			var keep uint
			for word != 0 {
				bit := bits.TrailingZeros(word)
				word &^= 1 << bit
				fd := i*wordBits + bit
				if fd >= nfds {
					break
				}
				if ev, _ := k.readiness(fd); ev&want[s] != 0 {
					keep |= 1 << bit
					n++
				}
			}
			*p = keep
		}
	}
	return n
}

func (k *Kernel) epoll(fd int) (*epoll, unix.Errno) {
	f, ok := k.files[fd]
	if !ok {
		return nil, unix.EBADF
	}
	ep, ok := f.(*epoll)
	if !ok {
		return nil, unix.EINVAL
	}
	return ep, 0
}

func (k *Kernel) epollCtl(epfd, op, fd int, event unsafe.Pointer) int64 {
	ep, errno := k.epoll(epfd)
	if errno != 0 {
		return fail(errno)
	}
	if _, ok := k.files[fd]; !ok {
		return fail(unix.EBADF)
	}
	if fd == epfd {
		return fail(unix.EINVAL)
	}
	_, exists := ep.interest[fd]
	switch op {
	case unix.EPOLL_CTL_ADD, unix.EPOLL_CTL_MOD:
		if op == unix.EPOLL_CTL_ADD && exists {
			return fail(unix.EEXIST)
		}
		if op == unix.EPOLL_CTL_MOD && !exists {
			return fail(unix.ENOENT)
		}
		if event == nil {
			return fail(unix.EFAULT)
		}
		ep.interest[fd] = *(*unix.EpollEvent)(event)
	case unix.EPOLL_CTL_DEL:
		if !exists {
			return fail(unix.ENOENT)
		}
		delete(ep.interest, fd)
	default:
		return fail(unix.EINVAL)
	}
	return 0
}

func (k *Kernel) epollWait(epfd int, events unsafe.Pointer, maxevents int) int64 {
	ep, errno := k.epoll(epfd)
	if errno != 0 {
		return fail(errno)
	}
	if maxevents <= 0 {
		return fail(unix.EINVAL)
	}
	if events == nil {
		return fail(unix.EFAULT)
	}
	out := unsafe.Slice((*unix.EpollEvent)(events), maxevents)
	n := 0
	for fd, want := range ep.interest {
		if n == maxevents {
			break
		}
		ev, _ := k.readiness(fd)
		got := uint32(ev) & (want.Events | unix.EPOLLERR | unix.EPOLLHUP)
		if got == 0 {
			continue
		}
		out[n] = want
		out[n].Events = got
		n++
	}
	return int64(n)
}

var _ kernel.Gateway = (*Kernel)(nil)

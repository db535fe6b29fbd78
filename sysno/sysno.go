// Package sysno enumerates the entry points that hijack interposes and maps
// each one to its libc symbol name and to the library kernel's syscall number.
package sysno

// NR is a library kernel syscall number. The library kernel uses the
// asm-generic numbering with the deprecated and no-flags calls enabled.
type NR int64

const (
	SYS_FCNTL       NR = 25
	SYS_IOCTL       NR = 29
	SYS_EPOLL_CTL   NR = 21
	SYS_CLOSE       NR = 57
	SYS_READ        NR = 63
	SYS_WRITE       NR = 64
	SYS_READV       NR = 65
	SYS_WRITEV      NR = 66
	SYS_SOCKET      NR = 198
	SYS_BIND        NR = 200
	SYS_LISTEN      NR = 201
	SYS_ACCEPT      NR = 202
	SYS_CONNECT     NR = 203
	SYS_GETSOCKNAME NR = 204
	SYS_GETPEERNAME NR = 205
	SYS_SENDTO      NR = 206
	SYS_RECVFROM    NR = 207
	SYS_SETSOCKOPT  NR = 208
	SYS_GETSOCKOPT  NR = 209
	SYS_SHUTDOWN    NR = 210
	SYS_SENDMSG     NR = 211
	SYS_RECVMSG     NR = 212
	SYS_SENDMMSG    NR = 269

	SYS_PIPE         NR = 1040
	SYS_EPOLL_CREATE NR = 1042
	SYS_SELECT       NR = 1067
	SYS_POLL         NR = 1068
	SYS_EPOLL_WAIT   NR = 1069
	SYS_RECV         NR = 1073
	SYS_SEND         NR = 1074
)

// Call identifies one interposed entry point.
type Call uint8

const (
	Close Call = iota
	Read
	Write
	Readv
	Writev
	Send
	Sendto
	Sendmsg
	Sendmmsg
	Recv
	Recvfrom
	Recvmsg
	Bind
	Connect
	Listen
	Accept
	Shutdown
	Getsockname
	Getpeername
	EpollWait
	Setsockopt
	Getsockopt
	Socket
	Ioctl
	Fcntl
	Poll
	Select
	EpollCtl
	EpollCreate
	Pipe

	NumCalls
)

type family uint8

const (
	// resolved at attach time
	fdKeyed family = iota
	// resolved on first use
	lazy
	// never reaches the host
	kernelOnly
)

type callInfo struct {
	name   string
	nr     NR
	family family
}

// The library kernel serves ioctl requests through fcntl.
var calls = [NumCalls]callInfo{
	Close:       {"close", SYS_CLOSE, fdKeyed},
	Read:        {"read", SYS_READ, fdKeyed},
	Write:       {"write", SYS_WRITE, fdKeyed},
	Readv:       {"readv", SYS_READV, fdKeyed},
	Writev:      {"writev", SYS_WRITEV, fdKeyed},
	Send:        {"send", SYS_SEND, fdKeyed},
	Sendto:      {"sendto", SYS_SENDTO, fdKeyed},
	Sendmsg:     {"sendmsg", SYS_SENDMSG, fdKeyed},
	Sendmmsg:    {"sendmmsg", SYS_SENDMMSG, fdKeyed},
	Recv:        {"recv", SYS_RECV, fdKeyed},
	Recvfrom:    {"recvfrom", SYS_RECVFROM, fdKeyed},
	Recvmsg:     {"recvmsg", SYS_RECVMSG, fdKeyed},
	Bind:        {"bind", SYS_BIND, fdKeyed},
	Connect:     {"connect", SYS_CONNECT, fdKeyed},
	Listen:      {"listen", SYS_LISTEN, fdKeyed},
	Accept:      {"accept", SYS_ACCEPT, fdKeyed},
	Shutdown:    {"shutdown", SYS_SHUTDOWN, fdKeyed},
	Getsockname: {"getsockname", SYS_GETSOCKNAME, fdKeyed},
	Getpeername: {"getpeername", SYS_GETPEERNAME, fdKeyed},
	EpollWait:   {"epoll_wait", SYS_EPOLL_WAIT, fdKeyed},
	Setsockopt:  {"setsockopt", SYS_SETSOCKOPT, lazy},
	Getsockopt:  {"getsockopt", SYS_GETSOCKOPT, lazy},
	Socket:      {"socket", SYS_SOCKET, lazy},
	Ioctl:       {"ioctl", SYS_FCNTL, lazy},
	Fcntl:       {"fcntl", SYS_FCNTL, lazy},
	Poll:        {"poll", SYS_POLL, lazy},
	Select:      {"select", SYS_SELECT, lazy},
	EpollCtl:    {"epoll_ctl", SYS_EPOLL_CTL, lazy},
	EpollCreate: {"epoll_create", SYS_EPOLL_CREATE, kernelOnly},
	Pipe:        {"pipe", SYS_PIPE, kernelOnly},
}

var byName = func() map[string]Call {
	m := make(map[string]Call, NumCalls)
	for c := Call(0); c < NumCalls; c++ {
		m[calls[c].name] = c
	}
	return m
}()

// Lookup returns the call whose libc symbol is name.
func Lookup(name string) (Call, bool) {
	c, ok := byName[name]
	return c, ok
}

// Valid reports whether c is a member of the enumeration.
func (c Call) Valid() bool {
	return c < NumCalls
}

// String returns the libc symbol name of c.
func (c Call) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return calls[c].name
}

// NR returns the library kernel syscall number that serves c.
func (c Call) NR() NR {
	return calls[c].nr
}

// FDKeyed reports whether c is governed by its first descriptor argument and
// has its native implementation resolved at attach time.
func (c Call) FDKeyed() bool {
	return c.Valid() && calls[c].family == fdKeyed
}

// KernelOnly reports whether c is always served by the library kernel and
// never needs a native implementation.
func (c Call) KernelOnly() bool {
	return c.Valid() && calls[c].family == kernelOnly
}

// All returns every call in enumeration order.
func All() []Call {
	out := make([]Call, 0, NumCalls)
	for c := Call(0); c < NumCalls; c++ {
		out = append(out, c)
	}
	return out
}

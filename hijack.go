//go:build linux

package hijack

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/sliverarmory/hijack/kernel"
	"github.com/sliverarmory/hijack/native"
	"github.com/sliverarmory/hijack/sysno"
	"github.com/sliverarmory/hijack/xlate"
)

var (
	ErrNoHost    = errors.New("hijack: no native host")
	ErrNoGateway = errors.New("hijack: no library kernel gateway")
)

// Config wires a Router to its two backends.
type Config struct {
	// Host runs native calls with their arguments untouched.
	Host native.Host
	// Gateway is the library kernel's syscall entry point.
	Gateway kernel.Gateway
	// Translator maps socket levels, option names, ioctl requests and
	// fcntl commands for kernel bound calls. Nil means xlate.Identity.
	Translator xlate.Translator
}

// Router is the per-call hook layer. It holds no mutable state and is safe
// for concurrent use; each call runs synchronously on the caller's
// goroutine with the blocking behavior of the backend it lands on.
type Router struct {
	host native.Host
	gw   kernel.Gateway
	xl   xlate.Translator
}

func New(cfg Config) (*Router, error) {
	if cfg.Host == nil {
		return nil, ErrNoHost
	}
	if cfg.Gateway == nil {
		return nil, ErrNoGateway
	}
	xl := cfg.Translator
	if xl == nil {
		xl = xlate.Identity{}
	}
	return &Router{host: cfg.Host, gw: cfg.Gateway, xl: xl}, nil
}

// Dispatch runs call c with its raw arguments, as the native entry point
// would receive them. It is the entry used by the preload library, whose
// word slots carry C addresses; Go callers pass pointers with sysno.Ptr.
func (r *Router) Dispatch(c sysno.Call, a sysno.Args) (int, error) {
	switch c {
	case sysno.Socket:
		return r.socket(a)
	case sysno.Setsockopt, sysno.Getsockopt:
		return r.sockopt(c, a)
	case sysno.Ioctl:
		return r.ioctl(a)
	case sysno.Fcntl:
		return r.fcntl(a)
	case sysno.Poll:
		return r.poll(a)
	case sysno.Select:
		return r.selectFn(a)
	case sysno.EpollCtl:
		return r.epollCtl(a)
	case sysno.EpollCreate, sysno.Pipe:
		return r.kernel(c, a)
	}
	if c.FDKeyed() {
		return r.byFD(c, a)
	}
	return -1, unix.ENOSYS
}

// byFD routes on the first argument.
func (r *Router) byFD(c sysno.Call, a sysno.Args) (int, error) {
	if Classify(a[0].Int()) == Native {
		return r.native(c, a)
	}
	return r.kernel(c, a)
}

func (r *Router) native(c sysno.Call, a sysno.Args) (int, error) {
	ret, errno := r.host.Call(c, a)
	if errno != 0 {
		return -1, errno
	}
	return int(ret), nil
}

func (r *Router) kernel(c sysno.Call, a sysno.Args) (int, error) {
	return status(r.gw.Syscall(c.NR(), a))
}

// status converts a library kernel return value to the native convention.
func status(ret int64) (int, error) {
	if ret < 0 {
		return -1, unix.Errno(-ret)
	}
	return int(ret), nil
}

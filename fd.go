package hijack

// FDOffset is the first descriptor value of the library kernel's descriptor
// space. Every smaller value, negative ones included, is a host descriptor.
const FDOffset = 1 << 24

// Space is a descriptor namespace.
type Space uint8

const (
	Native Space = iota
	Kernel
)

func (s Space) String() string {
	switch s {
	case Native:
		return "native"
	case Kernel:
		return "kernel"
	default:
		return "unknown"
	}
}

// Classify returns the namespace fd belongs to. It depends on the value
// alone.
func Classify(fd int) Space {
	if fd < FDOffset {
		return Native
	}
	return Kernel
}

// IsKernelFD reports whether fd belongs to the library kernel.
func IsKernelFD(fd int) bool {
	return Classify(fd) == Kernel
}

// seen accumulates the namespaces of a descriptor set.
type seen uint8

const (
	seenNative seen = 1 << iota
	seenKernel
)

func (s *seen) add(fd int) {
	if Classify(fd) == Kernel {
		*s |= seenKernel
	} else {
		*s |= seenNative
	}
}

func (s seen) mixed() bool {
	return s == seenNative|seenKernel
}

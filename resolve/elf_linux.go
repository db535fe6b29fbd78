//go:build linux

package resolve

import (
	"bufio"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/sliverarmory/hijack/resolve/internal/cgobootstrap"
)

// ELF resolves symbols straight from the C runtime image mapped into the
// process, found through /proc/self/maps. The C runtime is the next binding
// below any preloaded interposer, so this stands in for RTLD_NEXT when the
// dynamic loader cannot be asked directly.
type ELF struct {
	once sync.Once
	err  error
	path string
	base uintptr
	syms map[string]uintptr
}

// Library returns the path and load base of the C runtime image.
func (e *ELF) Library() (string, uintptr, error) {
	if err := e.load(); err != nil {
		return "", 0, err
	}
	return e.path, e.base, nil
}

func (e *ELF) Resolve(name string) (uintptr, error) {
	if err := e.load(); err != nil {
		return 0, err
	}
	off, ok := e.syms[strings.TrimSpace(name)]
	if !ok {
		return 0, fmt.Errorf("%s in %s: %w", name, e.path, ErrNotFound)
	}
	return e.base + off, nil
}

func (e *ELF) load() error {
	e.once.Do(func() {
		e.path, e.base, e.err = findRuntimeLibc()
		if e.err != nil {
			return
		}
		e.syms, e.err = readELFSymbols(e.path)
	})
	return e.err
}

// mapping is one executable, file backed line of /proc/self/maps.
type mapping struct {
	start  uintptr
	offset uintptr
	path   string
}

// base is the address the image's file offset zero is mapped at.
func (m mapping) base() (uintptr, bool) {
	return m.start - m.offset, m.start >= m.offset
}

// runtimeImages are C runtime file name prefixes, preferred first: glibc,
// versioned glibc, then musl's loader which doubles as its libc.
var runtimeImages = []string{"libc.so", "libc-", "ld-musl", "libc.musl"}

// runtimeRank orders a mapping by how surely it is the C runtime. Zero means
// it is not.
func runtimeRank(path string) int {
	name := strings.ToLower(filepath.Base(path))
	for i, prefix := range runtimeImages {
		if strings.HasPrefix(name, prefix) {
			return len(runtimeImages) - i
		}
	}
	return 0
}

func findRuntimeLibc() (string, uintptr, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	maps, err := parseProcMaps(f)
	if err != nil {
		return "", 0, fmt.Errorf("read /proc/self/maps: %w", err)
	}

	m, ok := pickRuntime(maps)
	if !ok {
		return "", 0, errors.New("no C runtime mapped into this process")
	}
	base, ok := m.base()
	if !ok {
		return "", 0, fmt.Errorf("%s mapped at %#x below its file offset %#x", m.path, m.start, m.offset)
	}
	return m.path, base, nil
}

// pickRuntime returns the lowest mapping of the best ranked C runtime image.
func pickRuntime(maps []mapping) (mapping, bool) {
	var best mapping
	rank := 0
	for _, m := range maps {
		if r := runtimeRank(m.path); r > rank {
			best, rank = m, r
		}
	}
	return best, rank > 0
}

// parseProcMaps keeps the executable, file backed mappings. Each line is
// "start-end perms offset dev inode path"; lines that do not parse are
// skipped.
func parseProcMaps(r io.Reader) ([]mapping, error) {
	var out []mapping
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 6 || !strings.Contains(fields[1], "x") {
			continue
		}
		span, _, _ := strings.Cut(fields[0], "-")
		start, err := strconv.ParseUint(span, 16, 64)
		if err != nil {
			continue
		}
		offset, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			continue
		}
		path := strings.TrimSuffix(strings.Join(fields[5:], " "), " (deleted)")
		if !filepath.IsAbs(path) {
			continue
		}
		out = append(out, mapping{start: uintptr(start), offset: uintptr(offset), path: path})
	}
	return out, sc.Err()
}

// readELFSymbols loads the defined dynamic symbols of path, falling back to
// the static symbol table. Only plain functions are kept; the first of
// several versioned definitions wins.
func readELFSymbols(path string) (map[string]uintptr, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf %s: %w", path, err)
	}
	defer f.Close()

	syms, err := f.DynamicSymbols()
	if err != nil || len(syms) == 0 {
		syms, err = f.Symbols()
	}
	if err != nil {
		return nil, fmt.Errorf("read symbols of %s: %w", path, err)
	}

	out := make(map[string]uintptr, len(syms))
	for _, s := range syms {
		if s.Value == 0 || elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		name, _, _ := strings.Cut(s.Name, "@")
		if _, seen := out[name]; !seen {
			out[name] = uintptr(s.Value)
		}
	}
	return out, nil
}

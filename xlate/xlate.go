// Package xlate maps host ABI constants to the library kernel's constants.
//
// The numeric contents of the tables belong to the embedder. This package
// only defines the contract and two translators built on it.
package xlate

// Translator converts native constants into library kernel constants. Every
// method is total and pure.
type Translator interface {
	SocketLevel(level int) int
	SocketOption(name int) int
	IoctlRequest(req uint) uint
	FcntlCommand(cmd int) int
}

// Identity is the translator for hosts whose constants already match the
// library kernel's.
type Identity struct{}

func (Identity) SocketLevel(level int) int  { return level }
func (Identity) SocketOption(name int) int  { return name }
func (Identity) IoctlRequest(req uint) uint { return req }
func (Identity) FcntlCommand(cmd int) int   { return cmd }

// Table translates through lookup maps. Values missing from a map pass
// through unchanged, which keeps every method total. A Table must not be
// modified once it is in use.
type Table struct {
	Levels   map[int]int
	Options  map[int]int
	Requests map[uint]uint
	Commands map[int]int
}

func (t *Table) SocketLevel(level int) int {
	if v, ok := t.Levels[level]; ok {
		return v
	}
	return level
}

func (t *Table) SocketOption(name int) int {
	if v, ok := t.Options[name]; ok {
		return v
	}
	return name
}

func (t *Table) IoctlRequest(req uint) uint {
	if v, ok := t.Requests[req]; ok {
		return v
	}
	return req
}

func (t *Table) FcntlCommand(cmd int) int {
	if v, ok := t.Commands[cmd]; ok {
		return v
	}
	return cmd
}

var (
	_ Translator = Identity{}
	_ Translator = (*Table)(nil)
)

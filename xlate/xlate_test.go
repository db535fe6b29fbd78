package xlate

import "testing"

func TestIdentity(t *testing.T) {
	var tr Translator = Identity{}
	if tr.SocketLevel(1) != 1 || tr.SocketOption(7) != 7 {
		t.Fatalf("identity changed a socket constant")
	}
	if tr.IoctlRequest(0x541b) != 0x541b || tr.FcntlCommand(3) != 3 {
		t.Fatalf("identity changed a request or command")
	}
}

func TestTable(t *testing.T) {
	tr := &Table{
		Levels:   map[int]int{0xffff: 1},
		Options:  map[int]int{0x1001: 7},
		Requests: map[uint]uint{0x4004667f: 0x541b},
		Commands: map[int]int{100: 3},
	}

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"mapped level", tr.SocketLevel(0xffff), 1},
		{"unmapped level", tr.SocketLevel(6), 6},
		{"mapped option", tr.SocketOption(0x1001), 7},
		{"unmapped option", tr.SocketOption(2), 2},
		{"mapped request", int(tr.IoctlRequest(0x4004667f)), 0x541b},
		{"unmapped request", int(tr.IoctlRequest(1)), 1},
		{"mapped command", tr.FcntlCommand(100), 3},
		{"unmapped command", tr.FcntlCommand(4), 4},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %#x, want %#x", tt.name, tt.got, tt.want)
		}
	}
}

func TestEmptyTableIsIdentity(t *testing.T) {
	tr := &Table{}
	if tr.SocketLevel(5) != 5 || tr.FcntlCommand(9) != 9 {
		t.Fatalf("empty table must pass values through")
	}
}

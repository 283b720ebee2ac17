package nav

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalStartsAtRoot(t *testing.T) {
	nav := NewTerminal(nil)
	if got := nav.CurrentPath(); got != "/" {
		t.Errorf("CurrentPath = %q, want /", got)
	}
	if got := nav.Last(); got != "" {
		t.Errorf("Last = %q before any navigation", got)
	}
}

func TestTerminalTracksHistory(t *testing.T) {
	nav := NewTerminal(nil)
	nav.Go("/order")
	nav.Redirect("/login")
	nav.Go("/")

	if got := nav.CurrentPath(); got != "/" {
		t.Errorf("CurrentPath = %q", got)
	}
	history := nav.History()
	want := []string{"/order", "/login", "/"}
	if len(history) != len(want) {
		t.Fatalf("History = %v, want %v", history, want)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("History[%d] = %q, want %q", i, history[i], want[i])
		}
	}
	if got := nav.Last(); got != "/" {
		t.Errorf("Last = %q", got)
	}
}

func TestTerminalPrintsTransitions(t *testing.T) {
	var buf bytes.Buffer
	nav := NewTerminal(&buf)
	nav.Go("/order")
	nav.Redirect("/login")

	out := buf.String()
	if !strings.Contains(out, "/order") || !strings.Contains(out, "/login") {
		t.Errorf("output missing transitions: %q", out)
	}
}

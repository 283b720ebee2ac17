// Package nav abstracts page navigation for a headless client.
//
// The gateway and the payment flow need to express "send the user to the
// login page" or "go to the order-complete view"; in a terminal client that
// means recording the current view path and telling the user. Tests inspect
// the recorded history.
package nav

import (
	"fmt"
	"io"
	"sync"
)

// Navigator is the seam the session/gateway/payment layers navigate through.
type Navigator interface {
	// CurrentPath returns the view path the client is currently on.
	CurrentPath() string

	// Go moves to path without tearing anything down.
	Go(path string)

	// Redirect is a hard navigation: the current view is abandoned.
	Redirect(path string)
}

// Terminal is the CLI Navigator. It prints transitions and keeps a history
// for inspection.
type Terminal struct {
	mu      sync.Mutex
	path    string
	history []string
	out     io.Writer
}

// NewTerminal returns a Terminal navigator starting at "/". Pass io.Discard
// to silence output in tests.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{path: "/", out: out}
}

func (t *Terminal) CurrentPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

func (t *Terminal) Go(path string) {
	t.move(path, "→")
}

func (t *Terminal) Redirect(path string) {
	t.move(path, "⇒")
}

func (t *Terminal) move(path, arrow string) {
	t.mu.Lock()
	t.path = path
	t.history = append(t.history, path)
	out := t.out
	t.mu.Unlock()

	if out != nil {
		fmt.Fprintf(out, "%s %s\n", arrow, path)
	}
}

// History returns every path visited, in order.
func (t *Terminal) History() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.history))
	copy(out, t.history)
	return out
}

// Last returns the most recent path, or "" when nothing was visited.
func (t *Terminal) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) == 0 {
		return ""
	}
	return t.history[len(t.history)-1]
}

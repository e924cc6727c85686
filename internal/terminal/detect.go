// Package terminal provides terminal detection utilities.
package terminal

import (
	"io"
	"os"

	"golang.org/x/term"
)

type fder interface {
	Fd() uintptr
}

var isTerminalFn = term.IsTerminal

// IsInteractive reports whether stdin and stdout are both interactive terminals.
func IsInteractive() bool {
	return isTerminalFn(int(os.Stdin.Fd())) && isTerminalFn(int(os.Stdout.Fd()))
}

// IsTerminal reports whether w is a file attached to a terminal.
// Buffers and pipes report false, so colors stay off in captured output.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return isTerminalFn(int(f.Fd()))
}

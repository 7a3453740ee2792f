//go:build unix

package input

import "github.com/gdamore/tcell/v2"

// OpenTerminal opens the controlling terminal.
func OpenTerminal() (Terminal, error) {
	return tcell.NewDevTty()
}

//go:build !unix

package input

import "errors"

// OpenTerminal is not supported on this platform.
func OpenTerminal() (Terminal, error) {
	return nil, errors.New("raw terminal input is not supported on this platform")
}

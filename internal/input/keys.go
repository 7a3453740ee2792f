package input

import (
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

const esc = 0x1b

var homeSequences = []string{"\x1b[H", "\x1b[1~", "\x1b[7~", "\x1bOH"}

// Decode reads one key from the start of buf and returns it with the
// number of bytes consumed. Unrecognised escape sequences decode to
// tcell.KeyNUL.
func Decode(buf []byte) (key tcell.Key, r rune, n int) {
	if len(buf) == 0 {
		return tcell.KeyNUL, 0, 0
	}

	if buf[0] == esc {
		if len(buf) == 1 {
			return tcell.KeyEscape, 0, 1
		}
		for _, seq := range homeSequences {
			if len(buf) >= len(seq) && string(buf[:len(seq)]) == seq {
				return tcell.KeyHome, 0, len(seq)
			}
		}
		// skip to the final byte of a CSI or SS3 sequence
		if buf[1] == '[' || buf[1] == 'O' {
			for i := 2; i < len(buf); i++ {
				if buf[i] >= 0x40 && buf[i] <= 0x7e {
					return tcell.KeyNUL, 0, i + 1
				}
			}
			return tcell.KeyNUL, 0, len(buf)
		}
		return tcell.KeyEscape, 0, 1
	}

	switch b := buf[0]; {
	case b == '\r' || b == '\n':
		return tcell.KeyEnter, 0, 1
	case b == 0x7f:
		return tcell.KeyBackspace2, 0, 1
	case b < 0x20:
		// control keys share their ASCII codes
		return tcell.Key(b), 0, 1
	}

	r, n = utf8.DecodeRune(buf)
	return tcell.KeyRune, r, n
}

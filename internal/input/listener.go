// Package input turns raw keystrokes into clock actions.
package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/felipedec/airport/internal/clock"
	"github.com/gdamore/tcell/v2"
)

// Terminal is a raw mode terminal. tcell.Tty satisfies it.
type Terminal interface {
	Start() error
	Stop() error
	io.Reader
}

// Clock is the part of the simulation clock the listener drives.
type Clock interface {
	Enqueue(clock.Action) bool
	TogglePause() bool
	Quit()
}

// Listener reads keys until the context ends or the operator quits.
type Listener struct {
	tty     Terminal
	clock   Clock
	console func()
	logger  *slog.Logger
}

// NewListener creates a listener. console runs on the simulation
// goroutine with the terminal back in cooked mode.
func NewListener(tty Terminal, clk Clock, console func(), logger *slog.Logger) *Listener {
	return &Listener{tty: tty, clock: clk, console: console, logger: logger}
}

// Run reads keys until ctx is done, the terminal fails or quit is pressed.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.tty.Start(); err != nil {
		return err
	}
	defer l.tty.Stop()

	buf := make([]byte, 64)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := l.tty.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		for data := buf[:n]; len(data) > 0; {
			key, r, size := Decode(data)
			data = data[size:]

			switch {
			case key == tcell.KeyCtrlC, key == tcell.KeyRune && (r == 'q' || r == 'Q'):
				l.logger.Info("quit requested from keyboard")
				l.clock.Quit()
				return nil
			case key == tcell.KeyRune && r == ' ':
				paused := l.clock.TogglePause()
				l.logger.Info("pause toggled", "paused", paused)
			case key == tcell.KeyHome, key == tcell.KeyRune && r == '`':
				if err := l.openConsole(ctx); err != nil {
					return err
				}
				// keys typed before the console opened belong to it
				data = nil
			}
		}
	}
}

// openConsole hands the terminal to the console until it closes.
func (l *Listener) openConsole(ctx context.Context) error {
	if err := l.tty.Stop(); err != nil {
		return err
	}

	done := make(chan struct{})
	if !l.clock.Enqueue(func() {
		defer close(done)
		l.console()
	}) {
		l.logger.Debug("console request dropped")
		close(done)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	return l.tty.Start()
}

// CRLFWriter translates line feeds for a terminal in raw mode.
type CRLFWriter struct {
	W io.Writer
}

func (w CRLFWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return w.W.Write(p)
	}
	out := bytes.ReplaceAll(bytes.ReplaceAll(p, []byte("\r\n"), []byte("\n")), []byte("\n"), []byte("\r\n"))
	if _, err := w.W.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
